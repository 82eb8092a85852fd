package parser

import (
	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/value"
)

// Words with grammar meaning that cannot name a reference or alias.
const (
	wordTrue      = "true"
	wordFalse     = "false"
	wordUndefined = "undefined"
	wordDef       = "def"
	wordAs        = "as"
	wordInclude   = "include"
)

func isReserved(name string) bool {
	switch name {
	case wordTrue, wordFalse, wordUndefined, wordDef, wordAs, wordInclude:
		return true
	}
	return false
}

// environment holds the named references of one file.
//
// A name is declared by exactly one token. It is being defined while it is
// declared but not yet resolved; include aliases are resolved at
// declaration.
type environment struct {
	tz         *lexer.Tokenizer
	references map[string]value.Value
	declared   map[string]*lexer.Token
	aliases    map[string]struct{}
}

func newEnvironment(tz *lexer.Tokenizer) *environment {
	return &environment{
		tz:         tz,
		references: make(map[string]value.Value),
		declared:   make(map[string]*lexer.Token),
		aliases:    make(map[string]struct{}),
	}
}

// declare starts the definition of a reference named by tok.
func (e *environment) declare(tok *lexer.Token) error {
	name := tok.Text
	if isReserved(name) {
		return e.tz.Failure(tok, "Trying to assign reference id '%s', which is reserved.", name).Wrap(ErrReference)
	}
	if _, ok := e.aliases[name]; ok {
		return e.tz.Failure(tok, "Trying to reassign include alias '%s' to reference.", name).Wrap(ErrReference)
	}
	if orig, ok := e.declared[name]; ok {
		if _, done := e.references[name]; done {
			return e.tz.Failure(tok, "Trying to reassign reference '%s', original at line %d", name, orig.Line).Wrap(ErrReference)
		}
		return e.tz.Failure(tok, "Trying to reassign reference '%s' while calculating its value, original at line %d", name, orig.Line).Wrap(ErrReference)
	}
	e.declared[name] = tok
	return nil
}

// define completes a reference started with declare.
func (e *environment) define(name string, v value.Value) {
	e.references[name] = v
}

// include binds an include alias to the included file's record.
func (e *environment) include(alias *lexer.Token, v value.Value) {
	e.declared[alias.Text] = alias
	e.aliases[alias.Text] = struct{}{}
	e.references[alias.Text] = v
}

// has reports whether name is known in any category.
func (e *environment) has(name string) bool {
	_, ok := e.declared[name]
	return ok
}

// get returns the value of a resolved reference. tok is used for
// diagnostics.
func (e *environment) get(name string, tok *lexer.Token) (value.Value, error) {
	if v, ok := e.references[name]; ok {
		return v, nil
	}
	if orig, ok := e.declared[name]; ok {
		return nil, e.tz.Failure(tok, "Trying to reference '%s' while it's being defined, original at line %d", name, orig.Line).Wrap(ErrReference)
	}
	return nil, e.tz.Failure(tok, "No such reference '%s'", name).Wrap(ErrReference)
}
