package validator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}

func (s *ValidatorTestSuite) TestIsPositiveDecimal() {
	tests := []struct {
		desc  string
		input string
		exp   bool
	}{
		{desc: "integer", input: "10", exp: true},
		{desc: "fraction", input: "0.000001", exp: true},
		{desc: "zero", input: "0", exp: false},
		{desc: "negative", input: "-1.5", exp: false},
		{desc: "not a number", input: "ten", exp: false},
		{desc: "empty", input: "", exp: false},
	}
	for _, t := range tests {
		s.Equal(t.exp, IsPositiveDecimal(t.input), t.desc)
	}
}

func (s *ValidatorTestSuite) TestIsValidUserId() {
	s.True(IsValidUserId("u1"))
	s.True(IsValidUserId("0xabc"))
	s.False(IsValidUserId(""))
	s.False(IsValidUserId("u 1"))
	s.False(IsValidUserId(string(make([]byte, maxUserIdLen+1))))
}

func (s *ValidatorTestSuite) TestStructTags() {
	type req struct {
		Owner string `validate:"userid"`
		Price string `validate:"price"`
	}
	v := NewCustomValidator(New())
	s.NoError(v.Validate(&req{Owner: "u1", Price: "1.5"}))
	s.Error(v.Validate(&req{Owner: "u1", Price: "0"}))
	s.Error(v.Validate(&req{Owner: "", Price: "1"}))
}
