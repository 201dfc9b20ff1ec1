package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

const promptCatalogEnv = "ADPACK_PROMPTS_YAML"

//go:embed prompts.yaml
var embeddedPromptCatalog []byte

type promptCatalogFile struct {
	Version      int                           `yaml:"version"`
	AspectRatio  string                        `yaml:"aspect_ratio"`
	Format       string                        `yaml:"format"`
	Categories   map[string]promptCategorySpec `yaml:"categories"`
	Templates    map[string]promptTemplateSpec `yaml:"templates"`
	VariantTypes map[string]promptVariantSpec  `yaml:"variant_types"`
	Shots        map[string]promptShotSpec     `yaml:"shots"`
}

type promptCategorySpec struct {
	Subject string `yaml:"subject"`
}

type promptTemplateSpec struct {
	Style   string `yaml:"style"`
	Palette string `yaml:"palette"`
}

type promptVariantSpec struct {
	Angle string `yaml:"angle"`
	Tone  string `yaml:"tone"`
}

type promptShotSpec struct {
	SpatialRole string `yaml:"spatial_role"`
	Instruction string `yaml:"instruction"`
}

// PromptCatalog maps category x template x variant type x shot type to a prompt.
type PromptCatalog struct {
	doc promptCatalogFile
}

type PayloadInput struct {
	ProductID   string
	ProductName string
	Category    adpack.Category
	Template    adpack.Template
	VariantType adpack.VariantType
	Model       string
	Now         time.Time
}

// LoadPromptCatalog reads ADPACK_PROMPTS_YAML when set, else the embedded catalog.
func LoadPromptCatalog(log *logger.Logger) (*PromptCatalog, error) {
	data := embeddedPromptCatalog
	if path := strings.TrimSpace(os.Getenv(promptCatalogEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt catalog %s: %w", path, err)
		}
		data = raw
		if log != nil {
			log.Info("prompt catalog loaded from file", "path", path)
		}
	}
	return ParsePromptCatalog(data)
}

func ParsePromptCatalog(data []byte) (*PromptCatalog, error) {
	var doc promptCatalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if err := validatePromptCatalog(doc); err != nil {
		return nil, err
	}
	return &PromptCatalog{doc: doc}, nil
}

func validatePromptCatalog(doc promptCatalogFile) error {
	if strings.TrimSpace(doc.Format) == "" {
		return fmt.Errorf("prompt catalog: format is required")
	}
	var missing []string
	for _, c := range adpack.Categories {
		if _, ok := doc.Categories[string(c)]; !ok {
			missing = append(missing, "categories."+string(c))
		}
	}
	for _, t := range adpack.Templates {
		if _, ok := doc.Templates[string(t)]; !ok {
			missing = append(missing, "templates."+string(t))
		}
	}
	for _, vt := range adpack.VariantTypes {
		if _, ok := doc.VariantTypes[string(vt)]; !ok {
			missing = append(missing, "variant_types."+string(vt))
		}
	}
	for _, st := range adpack.RequiredShots {
		if _, ok := doc.Shots[string(st)]; !ok {
			missing = append(missing, "shots."+string(st))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt catalog missing entries: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BuildPayload freezes the prompts for one variant.
func (c *PromptCatalog) BuildPayload(in PayloadInput) (adpack.GenerationPayload, error) {
	cat, ok := c.doc.Categories[string(in.Category)]
	if !ok {
		return adpack.GenerationPayload{}, fmt.Errorf("unknown category %q", in.Category)
	}
	tpl, ok := c.doc.Templates[string(in.Template)]
	if !ok {
		return adpack.GenerationPayload{}, fmt.Errorf("unknown template %q", in.Template)
	}
	vt, ok := c.doc.VariantTypes[string(in.VariantType)]
	if !ok {
		return adpack.GenerationPayload{}, fmt.Errorf("unknown variant type %q", in.VariantType)
	}

	shots := make(map[adpack.ShotType]adpack.ShotPrompt, len(adpack.RequiredShots))
	for _, st := range adpack.RequiredShots {
		shot := c.doc.Shots[string(st)]
		r := strings.NewReplacer(
			"{shot_instruction}", shot.Instruction,
			"{product_name}", strings.TrimSpace(in.ProductName),
			"{subject}", cat.Subject,
			"{style}", tpl.Style,
			"{palette}", tpl.Palette,
			"{angle}", vt.Angle,
			"{tone}", vt.Tone,
			"{spatial_role}", shot.SpatialRole,
		)
		shots[st] = adpack.ShotPrompt{
			Prompt:      strings.Join(strings.Fields(r.Replace(c.doc.Format)), " "),
			SpatialRole: shot.SpatialRole,
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return adpack.GenerationPayload{
		ProductID:   strings.TrimSpace(in.ProductID),
		ProductName: strings.TrimSpace(in.ProductName),
		Category:    in.Category,
		Template:    in.Template,
		VariantType: in.VariantType,
		Model:       in.Model,
		Angle:       vt.Angle,
		AspectRatio: c.doc.AspectRatio,
		Shots:       shots,
		CreatedAt:   now,
	}, nil
}
