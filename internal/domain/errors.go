package domain

import "errors"

var (
	ErrUnknownConditionType   = errors.New("unknown condition type")
	ErrInvalidCondition       = errors.New("invalid condition")
	ErrUnknownEffectOperation = errors.New("unknown effect operation")
	ErrUnknownStrategy        = errors.New("unknown forking strategy")
	ErrNonGroundStatement     = errors.New("statement is not ground")
	ErrInvalidConsequence     = errors.New("consequence must be exactly one of statement or effect")
)
