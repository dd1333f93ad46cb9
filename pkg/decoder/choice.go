package decoder

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/schema"
)

// branchFunc resolves the schema of the i-th alternative of a choice.
type branchFunc func(i int) (*schema.Schema, error)

// choice decodes one alternative of t and returns its value and index.
//
// A strategy, when set, is asked first; an alternative it picks is the only
// one decoded. Otherwise each alternative is attempted in declaration order
// from the start of the choice, and the first one that decodes without error
// is kept. A failed attempt leaves neither cursor nor tracked values moved.
// The cursor ends past the widest alternative.
func (s *state) choice(t *cobol.Type, branch branchFunc) (any, int, error) {
	var (
		name  = t.ChoiceName()
		start = s.cur.pos
		end   = start + t.ByteLen()
	)

	if s.d.strategy != nil {
		if i, ok := s.d.strategy.Choose(t, s.vars, s.cur.host, start); ok {
			if i < 0 || i >= len(t.Children) {
				return nil, -1, errors.Wrapf(ErrNoAlternativeSelected, "%s: strategy chose %d of %d alternatives", name, i, len(t.Children))
			}
			v, err := s.alternative(t.Children[i], i, branch)
			if err != nil {
				return nil, -1, errors.Wrapf(err, "%s: alternative %s", name, t.Children[i].Name)
			}
			s.cur.skipTo(end)
			return v, i, nil
		}
	}

	var errs error
	for i, alt := range t.Children {
		saved := s.vars.clone()
		v, err := s.alternative(alt, i, branch)
		if err == nil {
			s.cur.skipTo(end)
			return v, i, nil
		}
		errs = errors.CombineErrors(errs, errors.Wrapf(err, "alternative %s", alt.Name))
		s.cur.pos = start
		s.vars = saved
	}
	return nil, -1, errors.WithSecondaryError(errors.Wrapf(ErrNoAlternativeSelected, "%s", name), errs)
}

func (s *state) alternative(alt *cobol.Type, i int, branch branchFunc) (any, error) {
	sc, err := branch(i)
	if err != nil {
		return nil, err
	}
	return s.decode(alt, sc)
}
