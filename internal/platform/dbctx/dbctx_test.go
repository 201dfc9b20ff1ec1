package dbctx

import (
	"context"
	"testing"

	"gorm.io/gorm"
)

func TestConnPrefersTransaction(t *testing.T) {
	base := &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}
	tx := &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}

	if got := (Context{}).Conn(nil); got != nil {
		t.Fatalf("Conn without handles: want nil got %v", got)
	}
	if got := (Context{}).Conn(base); got != base {
		t.Fatalf("Conn without ctx should return fallback as-is")
	}
	if got := (Context{}).WithTx(tx).Conn(base); got != tx {
		t.Fatalf("Conn should prefer the transaction")
	}
	if c := New(context.Background()); c.Tx != nil || c.Ctx == nil {
		t.Fatalf("New: unexpected %+v", c)
	}
}
