package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Compiler turns schema definitions into reusable Validators.
// Identical definitions compile once.
type Compiler struct {
	mu    sync.Mutex
	cache map[string]*Validator
}

// NewCompiler creates an empty Compiler.
func NewCompiler() *Compiler {
	return &Compiler{cache: make(map[string]*Validator)}
}

// Compile accepts a definition as raw JSON ([]byte, json.RawMessage, string)
// or any value that marshals to a JSON Schema document.
func (c *Compiler) Compile(def any) (*Validator, error) {
	raw, err := toJSON(def)
	if err != nil {
		return nil, errors.Join(ErrCompile, err)
	}

	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[key]; ok {
		return v, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrCompile, err)
	}

	url := fmt.Sprintf("mem://schemas/%s.json", key)
	jc := jsonschema.NewCompiler()
	if err := jc.AddResource(url, doc); err != nil {
		return nil, errors.Join(ErrCompile, err)
	}
	compiled, err := jc.Compile(url)
	if err != nil {
		return nil, errors.Join(ErrCompile, err)
	}

	v := &Validator{schema: compiled, props: declaredProperties(doc)}
	c.cache[key] = v
	return v, nil
}

// MustCompile is Compile that panics. Use it for definitions fixed at route registration.
func (c *Compiler) MustCompile(def any) *Validator {
	v, err := c.Compile(def)
	if err != nil {
		panic(err)
	}
	return v
}

// Validator checks instances against one compiled schema. Safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
	props  map[string]property
}

// ValidateJSON decodes raw and validates it. An empty body is validated as null.
func (v *Validator) ValidateJSON(raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return v.Validate(nil)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Message: "malformed json"}
	}
	return v.Validate(inst)
}

// Validate checks an already decoded instance.
func (v *Validator) Validate(inst any) error {
	err := v.schema.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Message: "payload does not match schema", Fields: leafLocations(ve)}
	}
	return &ValidationError{Message: err.Error()}
}

func toJSON(def any) ([]byte, error) {
	switch d := def.(type) {
	case []byte:
		return d, nil
	case json.RawMessage:
		return d, nil
	case string:
		return []byte(d), nil
	default:
		return json.Marshal(def)
	}
}

func leafLocations(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		return []string{pointer(ve.InstanceLocation)}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range ve.Causes {
		for _, loc := range leafLocations(c) {
			if _, ok := seen[loc]; ok {
				continue
			}
			seen[loc] = struct{}{}
			out = append(out, loc)
		}
	}
	return out
}

func pointer(loc []string) string {
	var b bytes.Buffer
	for _, s := range loc {
		b.WriteByte('/')
		b.WriteString(s)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
