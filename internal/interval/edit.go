package interval

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Editing limits
const (
	MaxRounds          = 5
	MaxEditableRounds  = 3
	MinRepeatCount     = 1
	MaxRepeatCount     = 100
	DefaultRepeatCount = 3

	DefaultBlockDuration = 60
	DefaultBlockSpeed    = 10.0

	WarmupRoundID   = "warmup"
	CooldownRoundID = "cooldown"
)

var (
	ErrRoundNotFound    = errors.New("round not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrFixedRound       = errors.New("round is fixed")
	ErrTooManyRounds    = errors.New("maximum number of rounds reached")
	ErrRepeatOutOfRange = errors.New("repeat count out of range")
	ErrEmptyRoundName   = errors.New("round name cannot be empty")
	ErrBlockOutOfBounds = errors.New("block values out of range")
)

// DefaultPlan returns the plan used when nothing has been saved yet
func DefaultPlan() Plan {
	return Plan{Rounds: []Round{
		{
			ID:          WarmupRoundID,
			Name:        "Warm-up",
			RepeatCount: 1,
			IsFixed:     true,
			Blocks: []Block{
				{ID: "warmup-block", Tag: TagWarmup, Duration: 300, Speed: 8},
			},
		},
		{
			ID:          "round-1",
			Name:        "Round 1",
			RepeatCount: 3,
			Blocks: []Block{
				{ID: "round-1-fast", Tag: TagFast, Duration: 60, Speed: 12},
				{ID: "round-1-slow", Tag: TagSlow, Duration: 120, Speed: 8},
			},
		},
		{
			ID:          "round-2",
			Name:        "Round 2",
			RepeatCount: 3,
			Blocks: []Block{
				{ID: "round-2-fast", Tag: TagFast, Duration: 90, Speed: 13},
				{ID: "round-2-slow", Tag: TagSlow, Duration: 180, Speed: 9},
			},
		},
		{
			ID:          CooldownRoundID,
			Name:        "Cool-down",
			RepeatCount: 1,
			IsFixed:     true,
			Blocks: []Block{
				{ID: "cooldown-block", Tag: TagCooldown, Duration: 300, Speed: 7},
			},
		},
	}}
}

func newID() string {
	return uuid.NewString()
}

// EditableRoundCount returns the number of rounds that are not fixed
func (p Plan) EditableRoundCount() int {
	n := 0
	for _, r := range p.Rounds {
		if !r.IsFixed {
			n++
		}
	}
	return n
}

// CanAddRound reports whether AddRound would succeed
func (p Plan) CanAddRound() bool {
	return len(p.Rounds) < MaxRounds && p.EditableRoundCount() < MaxEditableRounds
}

// AddRound appends a new fast/slow round ahead of the fixed cool-down round
func (p *Plan) AddRound() (Round, error) {
	if !p.CanAddRound() {
		return Round{}, ErrTooManyRounds
	}

	id := newID()
	round := Round{
		ID:          id,
		Name:        fmt.Sprintf("Round %d", p.EditableRoundCount()+1),
		RepeatCount: DefaultRepeatCount,
		Blocks: []Block{
			{ID: id + "-fast", Tag: TagFast, Duration: 60, Speed: 12},
			{ID: id + "-slow", Tag: TagSlow, Duration: 120, Speed: 8},
		},
	}

	at := len(p.Rounds)
	for i, r := range p.Rounds {
		if r.IsFixed && r.ID == CooldownRoundID {
			at = i
			break
		}
	}

	rounds := make([]Round, 0, len(p.Rounds)+1)
	rounds = append(rounds, p.Rounds[:at]...)
	rounds = append(rounds, round)
	rounds = append(rounds, p.Rounds[at:]...)
	p.Rounds = rounds
	return round.Clone(), nil
}

// DeleteRound removes a non-fixed round
func (p *Plan) DeleteRound(roundID string) error {
	idx := p.FindRound(roundID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if p.Rounds[idx].IsFixed {
		return fmt.Errorf("delete %s: %w", roundID, ErrFixedRound)
	}
	p.Rounds = append(p.Rounds[:idx:idx], p.Rounds[idx+1:]...)
	return nil
}

// UpdateRound replaces the round carrying the same id. Fixed rounds keep
// their fixed flag and repeat count.
func (p *Plan) UpdateRound(round Round) error {
	idx := p.FindRound(round.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, round.ID)
	}
	existing := p.Rounds[idx]
	if existing.IsFixed {
		round.IsFixed = true
		round.RepeatCount = existing.RepeatCount
	} else if round.RepeatCount < MinRepeatCount || round.RepeatCount > MaxRepeatCount {
		return fmt.Errorf("%w: %d", ErrRepeatOutOfRange, round.RepeatCount)
	}
	p.Rounds[idx] = round.Clone()
	return nil
}

// RenameRound changes the display name of a round
func (p *Plan) RenameRound(roundID, name string) error {
	if name == "" {
		return ErrEmptyRoundName
	}
	idx := p.FindRound(roundID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	p.Rounds[idx].Name = name
	return nil
}

// SetRepeatCount changes how many times a non-fixed round runs
func (p *Plan) SetRepeatCount(roundID string, count int) error {
	idx := p.FindRound(roundID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if p.Rounds[idx].IsFixed {
		return fmt.Errorf("set repeat count on %s: %w", roundID, ErrFixedRound)
	}
	if count < MinRepeatCount || count > MaxRepeatCount {
		return fmt.Errorf("%w: %d", ErrRepeatOutOfRange, count)
	}
	p.Rounds[idx].RepeatCount = count
	return nil
}

// AddBlock appends a default block with the given tag to a non-fixed round
func (p *Plan) AddBlock(roundID string, tag BlockTag) (Block, error) {
	idx := p.FindRound(roundID)
	if idx < 0 {
		return Block{}, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if p.Rounds[idx].IsFixed {
		return Block{}, fmt.Errorf("add block to %s: %w", roundID, ErrFixedRound)
	}
	if !tag.Valid() {
		return Block{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	block := Block{
		ID:       newID(),
		Tag:      tag,
		Duration: DefaultBlockDuration,
		Speed:    DefaultBlockSpeed,
	}
	p.Rounds[idx].Blocks = append(p.Rounds[idx].Blocks, block)
	return block, nil
}

// UpdateBlock replaces the block carrying the same id inside a round
func (p *Plan) UpdateBlock(roundID string, block Block) error {
	idx := p.FindRound(roundID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	bidx := p.Rounds[idx].FindBlock(block.ID)
	if bidx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, block.ID)
	}
	if !block.Tag.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTag, block.Tag)
	}
	if block.Duration < 0 || block.Speed < 0 {
		return fmt.Errorf("%w: duration %d speed %.1f", ErrBlockOutOfBounds, block.Duration, block.Speed)
	}
	p.Rounds[idx].Blocks[bidx] = block
	return nil
}

// DeleteBlock removes a block from a non-fixed round
func (p *Plan) DeleteBlock(roundID, blockID string) error {
	idx := p.FindRound(roundID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	round := &p.Rounds[idx]
	if round.IsFixed {
		return fmt.Errorf("delete block from %s: %w", roundID, ErrFixedRound)
	}
	bidx := round.FindBlock(blockID)
	if bidx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	round.Blocks = append(round.Blocks[:bidx:bidx], round.Blocks[bidx+1:]...)
	return nil
}
