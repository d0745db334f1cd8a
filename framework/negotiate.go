package framework

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
)

// The outcome of merging every declarer's shared resource requests: one
// descriptor per surviving name, in deterministic creation order, plus the
// per-frame maintenance lists derived from the declaration flags.
type negotiated struct {
	buffers  []SharedBuffer
	textures []SharedTexture

	// Names of resources flagged for clearing at the start of every frame.
	clearBuffers  []string
	clearTextures []string

	// Pairs of (source, backup) texture names copied at frame start.
	backups [][2]string
}

// negotiate merges the shared buffer and texture declarations of the given
// declarers. Declarers are walked in pipeline order (techniques first, then
// components) and declarations within a declarer in slice order, so the
// resulting creation order is stable across activations of the same renderer.
//
// Merge rules per name:
//   - the first non-zero size, stride or format wins; a later declaration
//     with a different non-zero value is a conflict
//   - flags accumulate, except Optional which only survives if every
//     declarer asked for it
//   - Clear and Accumulate on the same name is a conflict
//   - a name left Optional by all declarers is dropped without allocation
//   - a non-optional buffer with no size after merging is an error
func negotiate(declarers []Declarer, logger log.Logger) (*negotiated, error) {
	var (
		out       negotiated
		bufIndex  = make(map[string]int)
		texIndex  = make(map[string]int)
		bufOpt    = make(map[string]bool)
		texOpt    = make(map[string]bool)
		bufWriter = make(map[string]int)
		texWriter = make(map[string]int)
	)

	for _, d := range declarers {
		for _, decl := range d.SharedBuffers() {
			idx, seen := bufIndex[decl.Name]
			if !seen {
				bufIndex[decl.Name] = len(out.buffers)
				bufOpt[decl.Name] = decl.Flags.has(FlagOptional)
				out.buffers = append(out.buffers, decl)
				if decl.Access != Read {
					bufWriter[decl.Name]++
				}
				continue
			}

			merged := &out.buffers[idx]
			if err := mergeSize("buffer", decl.Name, &merged.Size, decl.Size); err != nil {
				return nil, err
			}
			if err := mergeSize("buffer", decl.Name, &merged.Stride, decl.Stride); err != nil {
				return nil, err
			}
			merged.Flags |= decl.Flags &^ FlagOptional
			bufOpt[decl.Name] = bufOpt[decl.Name] && decl.Flags.has(FlagOptional)
			if decl.Access != Read {
				bufWriter[decl.Name]++
			}
			if merged.Access != decl.Access {
				merged.Access = ReadWrite
			}
		}

		for _, decl := range d.SharedTextures() {
			idx, seen := texIndex[decl.Name]
			if !seen {
				texIndex[decl.Name] = len(out.textures)
				texOpt[decl.Name] = decl.Flags.has(FlagOptional)
				out.textures = append(out.textures, decl)
				if decl.Access != Read {
					texWriter[decl.Name]++
				}
				continue
			}

			merged := &out.textures[idx]
			if merged.Format == decl.Format {
				// nothing to adopt
			} else if merged.Format == gfx.FormatUnknown {
				merged.Format = decl.Format
			} else if decl.Format != gfx.FormatUnknown {
				return nil, fmt.Errorf("%w: texture %q declared as both %s and %s",
					ErrResourceConflict, decl.Name, merged.Format, decl.Format)
			}
			if err := mergeDim("texture", decl.Name, &merged.Width, decl.Width); err != nil {
				return nil, err
			}
			if err := mergeDim("texture", decl.Name, &merged.Height, decl.Height); err != nil {
				return nil, err
			}
			merged.Mips = merged.Mips || decl.Mips
			merged.Flags |= decl.Flags &^ FlagOptional
			texOpt[decl.Name] = texOpt[decl.Name] && decl.Flags.has(FlagOptional)
			if decl.Access != Read {
				texWriter[decl.Name]++
			}
			if merged.Access != decl.Access {
				merged.Access = ReadWrite
			}
			if decl.BackupName != "" {
				if merged.BackupName != "" && merged.BackupName != decl.BackupName {
					return nil, fmt.Errorf("%w: texture %q declared with backups %q and %q",
						ErrResourceConflict, decl.Name, merged.BackupName, decl.BackupName)
				}
				merged.BackupName = decl.BackupName
			}
		}
	}

	// Drop resources every declarer marked optional; nobody committed to
	// producing them so lookups must report them absent.
	out.buffers = filterBuffers(out.buffers, func(b SharedBuffer) bool {
		return !bufOpt[b.Name]
	})
	out.textures = filterTextures(out.textures, func(t SharedTexture) bool {
		return !texOpt[t.Name]
	})

	// Filtering invalidates the name indexes; rebuild them for the backup
	// allocation pass below.
	texIndex = make(map[string]int, len(out.textures))
	for i, t := range out.textures {
		texIndex[t.Name] = i
	}

	for i := range out.buffers {
		b := &out.buffers[i]
		if b.Flags.has(FlagClear) && b.Flags.has(FlagAccumulate) {
			return nil, fmt.Errorf("%w: buffer %q flagged both clear and accumulate",
				ErrResourceConflict, b.Name)
		}
		if b.Size <= 0 {
			return nil, fmt.Errorf("%w: buffer %q", ErrResourceUnsized, b.Name)
		}
		if b.Flags.has(FlagClear) {
			out.clearBuffers = append(out.clearBuffers, b.Name)
		}
		if logger != nil && bufWriter[b.Name] > 1 {
			logger.Warningf("shared buffer %q has %d writers; write order follows pipeline order",
				b.Name, bufWriter[b.Name])
		}
	}

	for i := range out.textures {
		t := &out.textures[i]
		if t.Flags.has(FlagClear) && t.Flags.has(FlagAccumulate) {
			return nil, fmt.Errorf("%w: texture %q flagged both clear and accumulate",
				ErrResourceConflict, t.Name)
		}
		if t.Format == gfx.FormatUnknown {
			return nil, fmt.Errorf("%w: texture %q has no format", ErrResourceUnsized, t.Name)
		}
		if t.Flags.has(FlagClear) {
			out.clearTextures = append(out.clearTextures, t.Name)
		}
		if t.BackupName != "" {
			out.backups = append(out.backups, [2]string{t.Name, t.BackupName})
		}
		if logger != nil && texWriter[t.Name] > 1 {
			logger.Warningf("shared texture %q has %d writers; write order follows pipeline order",
				t.Name, texWriter[t.Name])
		}
	}

	// Backup targets get their own allocation, mirroring the source texture's
	// format and dimensions. They are never cleared and never written by
	// declarers directly.
	for _, pair := range out.backups {
		if _, exists := texIndex[pair[1]]; exists {
			continue
		}
		src := out.textures[texIndex[pair[0]]]
		texIndex[pair[1]] = len(out.textures)
		out.textures = append(out.textures, SharedTexture{
			Name:   pair[1],
			Access: Read,
			Format: src.Format,
			Width:  src.Width,
			Height: src.Height,
			Mips:   src.Mips,
		})
	}

	return &out, nil
}

func mergeSize(kind, name string, dst *int, src int) error {
	switch {
	case src == 0:
	case *dst == 0:
		*dst = src
	case *dst != src:
		return fmt.Errorf("%w: %s %q declared with sizes %d and %d",
			ErrResourceConflict, kind, name, *dst, src)
	}
	return nil
}

func mergeDim(kind, name string, dst *uint32, src uint32) error {
	switch {
	case src == 0:
	case *dst == 0:
		*dst = src
	case *dst != src:
		return fmt.Errorf("%w: %s %q declared with dimensions %d and %d",
			ErrResourceConflict, kind, name, *dst, src)
	}
	return nil
}

func filterBuffers(in []SharedBuffer, keep func(SharedBuffer) bool) []SharedBuffer {
	out := in[:0]
	for _, b := range in {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func filterTextures(in []SharedTexture, keep func(SharedTexture) bool) []SharedTexture {
	out := in[:0]
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
