// Package selection fits every candidate growth model to one observation set
// and ranks the fits by an information criterion.
package selection

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownCriterion = errors.New("selection: unknown criterion")

type Criterion int

const (
	AIC Criterion = iota
	BIC
	AICc
)

var criterionNames = [...]string{AIC: "AIC", BIC: "BIC", AICc: "AICc"}

func (c Criterion) String() string {
	if c >= 0 && int(c) < len(criterionNames) {
		return criterionNames[c]
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// ParseCriterion matches AIC, BIC or AICc, ignoring case.
func ParseCriterion(s string) (Criterion, error) {
	s = strings.TrimSpace(s)
	for i, name := range criterionNames {
		if strings.EqualFold(s, name) {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want AIC, BIC or AICc)", ErrUnknownCriterion, s)
}

func (c Criterion) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Criterion) UnmarshalText(b []byte) error {
	v, err := ParseCriterion(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Score evaluates the criterion for a fit with mean squared error mse, k
// coefficients and n observations. Lower is better. Inputs the formulas are
// undefined for score +Inf.
func Score(c Criterion, mse float64, k, n int) float64 {
	if !(mse > 0) || math.IsInf(mse, 0) || n < 1 {
		return math.Inf(1)
	}
	nf, kf := float64(n), float64(k)
	fit := nf * math.Log(mse)

	switch c {
	case AIC:
		return fit + 2*kf
	case BIC:
		return fit + kf*math.Log(nf)
	case AICc:
		dof := nf - kf - 1
		if dof <= 0 {
			return math.Inf(1)
		}
		return fit + 2*kf*nf/dof
	}
	return math.Inf(1)
}
