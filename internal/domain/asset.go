package domain

import (
	"errors"
	"fmt"
	"image"
	"path"
	"strconv"
	"strings"
)

// Role names a master image slot. Catalog tasks reference masters by role,
// never by filename.
type Role string

const (
	RoleIcon            Role = "icon"
	RoleLogo            Role = "logo"
	RoleLogoInverted    Role = "logo-inverted"
	RoleSplashSquare    Role = "splash-square"
	RoleSplashPortrait  Role = "splash-portrait"
	RoleSplashLandscape Role = "splash-landscape"
	RoleSplashIcon      Role = "splash-icon"
)

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case RoleIcon, RoleLogo, RoleLogoInverted, RoleSplashSquare,
		RoleSplashPortrait, RoleSplashLandscape, RoleSplashIcon:
		return role, nil
	default:
		return "", fmt.Errorf("unknown master role: %q", s)
	}
}

type Dims struct {
	W int
	H int
}

func ParseDims(s string) (Dims, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return Dims{}, fmt.Errorf("size must look like 192x192, got %q", s)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Dims{}, fmt.Errorf("size must be two positive integers, got %q", s)
	}
	return Dims{W: w, H: h}, nil
}

func (d Dims) String() string { return fmt.Sprintf("%dx%d", d.W, d.H) }

func (d Dims) Positive() bool { return d.W > 0 && d.H > 0 }

type Mode string

const (
	ModeCopy    Mode = "copy"
	ModePad     Mode = "pad"
	ModeMargin  Mode = "margin"
	ModeStretch Mode = "stretch"
	ModeBlank   Mode = "blank"
)

// ParseMode maps a catalog mode string to a Mode. The empty string means pad,
// the mode nearly every catalog entry wants.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if mode == "" {
		return ModePad, nil
	}
	switch mode {
	case ModeCopy, ModePad, ModeMargin, ModeStretch, ModeBlank:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown transform mode: %q", s)
	}
}

// DefaultMargin is the fraction of the target box the content may occupy in
// margin mode. Android adaptive icons reserve the outer 30% for masking.
const DefaultMargin = 0.70

// TransformSpec describes one rendering of a master. A nil Size means the
// master's native size.
type TransformSpec struct {
	Size   *Dims
	Mode   Mode
	Margin float64
}

func (s TransformSpec) Validate() error {
	switch s.Mode {
	case ModeCopy, ModePad, ModeMargin, ModeStretch:
		if s.Size != nil && !s.Size.Positive() {
			return fmt.Errorf("target size must be positive, got %s", s.Size)
		}
	case ModeBlank:
		if s.Size == nil {
			return errors.New("blank requires a target size")
		}
		if !s.Size.Positive() {
			return fmt.Errorf("target size must be positive, got %s", s.Size)
		}
	default:
		return fmt.Errorf("unknown transform mode: %q", s.Mode)
	}

	if s.Margin != 0 {
		if s.Mode != ModeMargin {
			return errors.New("margin fraction is only valid in margin mode")
		}
		if s.Margin < 0 || s.Margin >= 1 {
			return fmt.Errorf("margin fraction must be in (0, 1), got %v", s.Margin)
		}
	}
	return nil
}

func (s TransformSpec) EffectiveMargin() float64 {
	if s.Margin > 0 {
		return s.Margin
	}
	return DefaultMargin
}

// Task is one catalog entry: render a master (or a blank canvas) to a
// project-relative destination. Blank tasks carry no role.
type Task struct {
	Role Role
	Dest string
	Spec TransformSpec
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Dest) == "" {
		return errors.New("task dest is required")
	}
	if path.IsAbs(t.Dest) || t.Dest != path.Clean(t.Dest) || strings.HasPrefix(t.Dest, "..") {
		return fmt.Errorf("task dest must be a clean relative path, got %q", t.Dest)
	}
	if err := t.Spec.Validate(); err != nil {
		return fmt.Errorf("task %s: %w", t.Dest, err)
	}
	if t.Spec.Mode == ModeBlank {
		if t.Role != "" {
			return fmt.Errorf("task %s: blank tasks take no master role", t.Dest)
		}
		return nil
	}
	if _, err := ParseRole(string(t.Role)); err != nil {
		return fmt.Errorf("task %s: %w", t.Dest, err)
	}
	return nil
}

type Catalog struct {
	Name   string
	Family string
	Tasks  []Task
}

func (c Catalog) Expected() int { return len(c.Tasks) }

// MasterSpec is one registry entry: which file serves a role and the native
// size the file is expected to have. Expected dims are advisory for the
// aspect-preserving modes; a deviating master only triggers a warning.
type MasterSpec struct {
	Role     Role
	File     string
	Expected Dims
	Required bool
}

// Master is a decoded master image plus its original encoded bytes. The raw
// bytes survive decoding so same-size copies stay byte-identical to the
// source file.
type Master struct {
	Role   Role
	Path   string
	Format string
	Data   []byte
	Image  image.Image
	Size   Dims
	Alpha  bool
}

// Rendered is the outcome of one transform: encoded PNG bytes (or verbatim
// source bytes on the copy fast path) plus the pixel dimensions.
type Rendered struct {
	Data []byte
	Size Dims
}
