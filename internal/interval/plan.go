package interval

import (
	"errors"
	"fmt"
)

// BlockTag classifies a block by intensity
type BlockTag string

const (
	TagWarmup   BlockTag = "warmup"
	TagFast     BlockTag = "fast"
	TagSlow     BlockTag = "slow"
	TagCooldown BlockTag = "cooldown"
)

// AllBlockTags lists the known tags in display order
var AllBlockTags = []BlockTag{TagWarmup, TagFast, TagSlow, TagCooldown}

// Label returns the human readable name of the tag
func (t BlockTag) Label() string {
	switch t {
	case TagWarmup:
		return "Warm-up"
	case TagFast:
		return "Fast"
	case TagSlow:
		return "Slow"
	case TagCooldown:
		return "Cool-down"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known tags
func (t BlockTag) Valid() bool {
	for _, known := range AllBlockTags {
		if t == known {
			return true
		}
	}
	return false
}

// Block is a single timed segment with a target speed
type Block struct {
	ID       string   `json:"id" yaml:"id"`
	Tag      BlockTag `json:"tag" yaml:"tag"`
	Duration int      `json:"duration" yaml:"duration"` // whole seconds
	Speed    float64  `json:"speed" yaml:"speed"`       // km/h, descriptive only
}

// Seconds returns the block duration, treating negative values as zero
func (b Block) Seconds() int {
	if b.Duration < 0 {
		return 0
	}
	return b.Duration
}

// Round is an ordered list of blocks repeated RepeatCount times
type Round struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	RepeatCount int     `json:"repeatCount" yaml:"repeatCount"`
	Blocks      []Block `json:"blocks" yaml:"blocks"`
	IsFixed     bool    `json:"isFixed,omitempty" yaml:"isFixed,omitempty"`
}

// Repeats returns the effective repeat count. Values below one count as one.
func (r Round) Repeats() int {
	if r.RepeatCount < 1 {
		return 1
	}
	return r.RepeatCount
}

// RepeatSeconds returns the duration of a single pass over the blocks
func (r Round) RepeatSeconds() int {
	total := 0
	for _, b := range r.Blocks {
		total += b.Seconds()
	}
	return total
}

// TotalSeconds returns the duration of all repeats of the round
func (r Round) TotalSeconds() int {
	return r.RepeatSeconds() * r.Repeats()
}

// IsEmpty reports whether the round has no blocks to run
func (r Round) IsEmpty() bool {
	return len(r.Blocks) == 0
}

// Plan is the full interval configuration
type Plan struct {
	Rounds []Round `json:"rounds" yaml:"rounds"`
}

// TotalSeconds returns the planned duration of the whole plan
func (p Plan) TotalSeconds() int {
	total := 0
	for _, r := range p.Rounds {
		total += r.TotalSeconds()
	}
	return total
}

// BlockCount returns the number of blocks visited when running the plan
func (p Plan) BlockCount() int {
	count := 0
	for _, r := range p.Rounds {
		count += len(r.Blocks) * r.Repeats()
	}
	return count
}

// Clone returns a deep copy of the plan
func (p Plan) Clone() Plan {
	if p.Rounds == nil {
		return Plan{}
	}
	rounds := make([]Round, len(p.Rounds))
	for i, r := range p.Rounds {
		rounds[i] = r.Clone()
	}
	return Plan{Rounds: rounds}
}

// Clone returns a deep copy of the round
func (r Round) Clone() Round {
	out := r
	if r.Blocks != nil {
		out.Blocks = make([]Block, len(r.Blocks))
		copy(out.Blocks, r.Blocks)
	}
	return out
}

// FindRound returns the index of the round with the given id, or -1
func (p Plan) FindRound(id string) int {
	for i, r := range p.Rounds {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// FindBlock returns the index of the block with the given id, or -1
func (r Round) FindBlock(id string) int {
	for i, b := range r.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

var (
	ErrInvalidPlan   = errors.New("invalid plan")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrUnknownTag    = errors.New("unknown block tag")
	ErrNegativeValue = errors.New("negative value")
)

// Validate checks the plan for values the editor would never produce.
// The traversal engine tolerates every one of these, so a failing plan can
// still be run; Validate exists for the edit and load paths.
func (p Plan) Validate() error {
	var errs []error
	roundIDs := make(map[string]bool)
	for i, r := range p.Rounds {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("round %d: empty id", i))
		} else if roundIDs[r.ID] {
			errs = append(errs, fmt.Errorf("round %d: %w %q", i, ErrDuplicateID, r.ID))
		}
		roundIDs[r.ID] = true

		if r.RepeatCount < MinRepeatCount || r.RepeatCount > MaxRepeatCount {
			errs = append(errs, fmt.Errorf("round %q: repeat count %d outside %d..%d", r.ID, r.RepeatCount, MinRepeatCount, MaxRepeatCount))
		}

		blockIDs := make(map[string]bool)
		for j, b := range r.Blocks {
			if b.ID == "" {
				errs = append(errs, fmt.Errorf("round %q block %d: empty id", r.ID, j))
			} else if blockIDs[b.ID] {
				errs = append(errs, fmt.Errorf("round %q block %d: %w %q", r.ID, j, ErrDuplicateID, b.ID))
			}
			blockIDs[b.ID] = true

			if !b.Tag.Valid() {
				errs = append(errs, fmt.Errorf("round %q block %q: %w %q", r.ID, b.ID, ErrUnknownTag, b.Tag))
			}
			if b.Duration < 0 {
				errs = append(errs, fmt.Errorf("round %q block %q: %w duration %d", r.ID, b.ID, ErrNegativeValue, b.Duration))
			}
			if b.Speed < 0 {
				errs = append(errs, fmt.Errorf("round %q block %q: %w speed %.1f", r.ID, b.ID, ErrNegativeValue, b.Speed))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
}
