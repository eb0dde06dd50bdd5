package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/vertex"
)

// KernelCustomPrefix prefixes the kernel name of file-loaded effects.
const KernelCustomPrefix = "custom:"

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithValidator replaces the naga stage validator.
func WithValidator(v Validator) LibraryOption {
	return func(l *Library) {
		l.validate = v
	}
}

// Library owns the programs of one device: the built-ins, which must all
// compile, and custom effect programs loaded from WGSL fragment files.
type Library struct {
	dev      gpucore.Device
	validate Validator

	byName map[string]*Program
	byKey  map[Key]*Program
	custom map[string]string // effect name -> file path

	// lastFailure dedupes diagnostics per program name.
	lastFailure map[string]string
	pending     []string
}

// NewLibrary compiles every built-in program on dev.
func NewLibrary(dev gpucore.Device, opts ...LibraryOption) (*Library, error) {
	l := &Library{
		dev:         dev,
		validate:    NagaValidator,
		byName:      make(map[string]*Program),
		byKey:       make(map[Key]*Program),
		custom:      make(map[string]string),
		lastFailure: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, src := range Builtins() {
		if _, err := l.add(src); err != nil {
			l.Destroy()
			return nil, fmt.Errorf("shader: built-in program %s: %w", src.Name, err)
		}
	}
	return l, nil
}

// add compiles src, reusing an existing program with the same source pair.
func (l *Library) add(src Source) (*Program, error) {
	if p, ok := l.byKey[src.Key()]; ok && p.Format() == src.Format {
		l.byName[src.Name] = p
		return p, nil
	}
	p, err := compile(l.dev, src, l.validate)
	if err != nil {
		return nil, err
	}
	l.byKey[src.Key()] = p
	l.byName[src.Name] = p
	return p, nil
}

// Program returns the named program.
func (l *Library) Program(name string) (*Program, bool) {
	p, ok := l.byName[name]
	return p, ok
}

// ForKind returns the default program of a vertex layout kind.
func (l *Library) ForKind(k vertex.Kind) *Program {
	return l.byName[k.Program()]
}

// Fallback returns the safe program for a vertex format: plain texture,
// tinted texture or flat color passthrough.
func (l *Library) Fallback(format gpucore.VertexFormat) *Program {
	switch format {
	case gpucore.FormatPositionTexcoord:
		return l.byName[vertex.ProgramTexture]
	case gpucore.FormatPositionTexcoordColor:
		return l.byName[vertex.ProgramTintedTexture]
	default:
		return l.byName[vertex.ProgramFlatColor]
	}
}

// Resolve returns the named program, or the fallback for format when the
// name is unknown or failed to compile.
func (l *Library) Resolve(name string, format gpucore.VertexFormat) *Program {
	if p, ok := l.byName[name]; ok && p.Format() == format {
		return p
	}
	return l.Fallback(format)
}

// Compile compiles and registers a program under src.Name, replacing a
// previous program of that name. On failure the previous program stays
// registered and a diagnostic is queued if this failure is new.
func (l *Library) Compile(src Source) (*Program, error) {
	old := l.byName[src.Name]
	p, err := compile(l.dev, src, l.validate)
	if err != nil {
		l.recordFailure(src.Name, err)
		return nil, err
	}
	delete(l.lastFailure, src.Name)
	l.byName[src.Name] = p
	l.byKey[src.Key()] = p
	if old != nil && old != p && !l.shared(old) {
		if l.byKey[old.Key()] == old {
			delete(l.byKey, old.Key())
		}
		old.Destroy()
	}
	return p, nil
}

// shared reports whether p is still registered under any name.
func (l *Library) shared(p *Program) bool {
	for _, q := range l.byName {
		if q == p {
			return true
		}
	}
	return false
}

func (l *Library) recordFailure(name string, err error) {
	msg := err.Error()
	if l.lastFailure[name] == msg {
		return
	}
	l.lastFailure[name] = msg
	l.pending = append(l.pending, msg)
	gpucore.Logger().Warn("shader: compile failed, using fallback", "program", name, "err", err)
}

// Diagnostics drains the queued one-time compile diagnostics.
func (l *Library) Diagnostics() []string {
	d := l.pending
	l.pending = nil
	return d
}

// LoadEffect compiles a custom effect from a WGSL file holding a fragment
// stage; the vertex stage is the shared full-screen quad stage.
func (l *Library) LoadEffect(name, path string) (*Program, error) {
	l.custom[name] = path
	return l.reloadEffect(name)
}

// Reload recompiles the custom effect registered under name.
func (l *Library) Reload(name string) error {
	_, err := l.reloadEffect(name)
	return err
}

func (l *Library) reloadEffect(name string) (*Program, error) {
	path, ok := l.custom[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.recordFailure(name, err)
		return nil, fmt.Errorf("shader: read effect %s: %w", name, err)
	}
	p, err := l.Compile(Source{
		Name:     name,
		Kernel:   KernelCustomPrefix + name,
		Format:   gpucore.FormatPositionTexcoord,
		Vertex:   EffectVertexSource(),
		Fragment: string(data),
	})
	if err != nil {
		return nil, err
	}
	gpucore.Logger().Info("shader: loaded effect", "name", name, "path", path)
	return p, nil
}

// EffectFiles returns the registered custom effects and their paths.
func (l *Library) EffectFiles() map[string]string {
	out := make(map[string]string, len(l.custom))
	for k, v := range l.custom {
		out[k] = v
	}
	return out
}

// LoadEffectDir loads every *.wgsl file in dir as a custom effect named
// after the file without its extension. Files that fail to compile are
// reported through Diagnostics and skipped.
func (l *Library) LoadEffectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("shader: effect dir: %w", err)
	}
	var loaded []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wgsl" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".wgsl")
		if _, err := l.LoadEffect(name, filepath.Join(dir, e.Name())); err != nil {
			var ce *CompileError
			if !errors.As(err, &ce) {
				return loaded, err
			}
			continue
		}
		loaded = append(loaded, name)
	}
	sort.Strings(loaded)
	return loaded, nil
}

// Destroy releases every program.
func (l *Library) Destroy() {
	seen := make(map[*Program]bool)
	for _, p := range l.byName {
		if !seen[p] {
			seen[p] = true
			p.Destroy()
		}
	}
	for _, p := range l.byKey {
		if !seen[p] {
			seen[p] = true
			p.Destroy()
		}
	}
	l.byName = map[string]*Program{}
	l.byKey = map[Key]*Program{}
}
