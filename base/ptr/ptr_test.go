package ptr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type pointerSuite struct {
	suite.Suite
}

func TestPointerSuite(t *testing.T) {
	suite.Run(t, new(pointerSuite))
}

func (s *pointerSuite) TestOfValue() {
	now := time.Now()
	s.Equal(now, *Of(now))
	s.Equal("u1", Value(Of("u1")))
	s.Equal("", Value[string](nil))
	s.Equal(0, Value[int](nil))
}

func (s *pointerSuite) TestCloneDoesNotAlias() {
	s.Nil(Clone[string](nil))

	orig := Of("u1")
	cp := Clone(orig)
	*cp = "u2"
	s.Equal("u1", *orig)
	s.Equal("u2", *cp)
}
