package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	repotest "github.com/Monetiqai/Monetiq-sub003/internal/data/repos/testutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
)

func testPNG(t testing.TB, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 10))
	for x := 0; x < 8; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeProvider struct {
	mu       sync.Mutex
	image    []byte
	failWhen func(req RenderRequest) bool
	calls    []RenderRequest
}

func (p *fakeProvider) RenderShot(_ context.Context, req RenderRequest) (RenderedImage, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	if p.failWhen != nil && p.failWhen(req) {
		return RenderedImage{}, errors.New("provider said no: quota exceeded for key sk-test")
	}
	return RenderedImage{Bytes: p.image, MimeType: "image/png"}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Store(_ context.Context, kind ObjectKind, key string, body []byte) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return StoredObject{}, errors.New("bucket unavailable")
	}
	s.objects[string(kind)+"/"+key] = append([]byte(nil), body...)
	return StoredObject{URL: "https://cdn.test/" + string(kind) + "/" + key, Key: key}, nil
}

func (s *memoryStore) Open(_ context.Context, kind ObjectKind, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[string(kind)+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memoryStore) Delete(_ context.Context, kind ObjectKind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, string(kind)+"/"+key)
	return nil
}

func (s *memoryStore) count(kind ObjectKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.objects {
		if strings.HasPrefix(k, string(kind)+"/") {
			n++
		}
	}
	return n
}

type recordedEvent struct {
	Event realtime.SSEEvent
	Data  realtime.PackEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event realtime.SSEEvent, ev realtime.PackEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Event: event, Data: ev})
}

func (p *recordingPublisher) count(event realtime.SSEEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// syncDispatcher runs the pipeline before Dispatch returns so tests observe the outcome.
type syncDispatcher struct {
	pipeline VariantPipeline
	err      error
	jobs     []GenerationJob
}

func (d *syncDispatcher) Dispatch(ctx context.Context, job GenerationJob) (string, error) {
	d.jobs = append(d.jobs, job)
	if d.err != nil {
		return "", d.err
	}
	if err := d.pipeline.RunPack(ctx, job.PackID, job.VariantIDs); err != nil {
		return "", err
	}
	return "run-" + job.PackID.String()[:8], nil
}

type serviceFixture struct {
	ctx        context.Context
	db         *gorm.DB
	packs      repos.PackRepo
	variants   repos.VariantRepo
	assets     repos.AdAssetRepo
	provider   *fakeProvider
	store      *memoryStore
	events     *recordingPublisher
	dispatcher *syncDispatcher
	prompts    *PromptCatalog
	pipeline   VariantPipeline
	svc        AdPackService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	base := aggregates.BaseDeps{DB: db}

	packs := repos.NewPackRepo(db, log)
	variants := repos.NewVariantRepo(db, log)
	assets := repos.NewAdAssetRepo(db, log)
	lifecycle := aggregates.NewVariantLifecycleAggregate(aggregates.VariantLifecycleAggregateDeps{Base: base, Packs: packs, Variants: variants})
	rollup := aggregates.NewPackRollupAggregate(aggregates.PackRollupAggregateDeps{Base: base, Packs: packs, Variants: variants})

	prompts, err := ParsePromptCatalog(embeddedPromptCatalog)
	if err != nil {
		t.Fatalf("prompt catalog: %v", err)
	}
	storyboards, err := NewStoryboardComposer()
	if err != nil {
		t.Fatalf("storyboard composer: %v", err)
	}

	f := &serviceFixture{
		ctx:      context.Background(),
		db:       db,
		packs:    packs,
		variants: variants,
		assets:   assets,
		provider: &fakeProvider{image: testPNG(t, color.NRGBA{R: 200, G: 80, B: 40, A: 255})},
		store:    newMemoryStore(),
		events:   &recordingPublisher{},
		prompts:  prompts,
	}
	f.pipeline = NewVariantPipeline(PipelineDeps{
		Log:         log,
		Packs:       packs,
		Variants:    variants,
		Lifecycle:   lifecycle,
		Rollup:      rollup,
		Provider:    f.provider,
		Store:       f.store,
		Ledger:      NewAssetLedger(log, assets, nil),
		Events:      f.events,
		Storyboards: storyboards,
		Concurrency: 2,
	})
	f.dispatcher = &syncDispatcher{pipeline: f.pipeline}
	f.svc = NewAdPackService(AdPackServiceDeps{
		Log:        log,
		Config:     AdPackConfig{FastModel: "fast-model", FinalModel: "final-model"},
		Packs:      packs,
		Variants:   variants,
		Assets:     assets,
		Creation:   aggregates.NewPackCreationAggregate(aggregates.PackCreationAggregateDeps{Base: base, Packs: packs, Variants: variants}),
		Winner:     aggregates.NewWinnerAggregate(aggregates.WinnerAggregateDeps{Base: base, Packs: packs, Variants: variants}),
		Lifecycle:  lifecycle,
		Rollup:     rollup,
		Promotion:  aggregates.NewPromotionAggregate(aggregates.PromotionAggregateDeps{Base: base, Packs: packs, Variants: variants}),
		Prompts:    prompts,
		Dispatcher: f.dispatcher,
		Events:     f.events,
	})
	return f
}

func validInput() GenerateInput {
	return GenerateInput{ProductID: "sku-42", ProductName: "Cloud Hoodie", Category: "hoodies", Template: "streetwear"}
}

func (f *serviceFixture) generate(t *testing.T, owner uuid.UUID) *GenerateResult {
	t.Helper()
	res, err := f.svc.Generate(f.ctx, owner, validInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func decodeMeta(t *testing.T, raw datatypes.JSON) map[string]any {
	t.Helper()
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	return out
}
