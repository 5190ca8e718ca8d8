package manifest

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compiling manifest schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Manifest"))
		schemaErr = schemaDef.Err()
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks decoded manifest data against the embedded schema.
// Unknown sections and keys are rejected.
func Validate(raw map[string]any) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}
	v := ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid manifest: %s", errors.Details(err, nil))
	}
	return nil
}
