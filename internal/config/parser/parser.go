// Package parser reads config files into schema-typed records.
//
// A config file holds, in this order, include statements, def blocks and
// exactly one typed message:
//
//	include "base.cfg" as base
//
//	def {
//	    port = 8080
//	    level = app.Level.HIGH
//	}
//
//	app.Server : base {
//	    port = port
//	    db {
//	        host = "db.internal"
//	    }
//	}
//
// Parsing is single threaded and synchronous. Every file gets a fresh
// reference environment that is discarded when the file is done.
package parser

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/loader"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// Parser parses config files against a type registry. A Parser holds no
// per-parse state and is safe for concurrent use.
type Parser struct {
	reg    *registry.Registry
	fs     loader.FileSystem
	strict bool
	log    zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes unknown fields, types and enum values fatal.
func WithStrict(strict bool) Option {
	return func(p *Parser) { p.strict = strict }
}

// WithFileSystem sets the file system files are read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(p *Parser) { p.fs = fsys }
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// New creates a parser.
func New(reg *registry.Registry, opts ...Option) *Parser {
	p := &Parser{
		reg: reg,
		fs:  loader.DefaultFS(),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strict reports whether the parser runs in strict mode.
func (p *Parser) Strict() bool { return p.strict }

// Result is the outcome of parsing a config file.
type Result struct {
	// Message is the root record.
	Message *value.Message
	// Files holds the canonical paths of the parsed file and every file it
	// includes, directly or not, sorted.
	Files []string
}

// ParseFile parses the config file at path. If parent is not nil the root
// message starts from it and must be of the same type.
func (p *Parser) ParseFile(path string, parent *value.Message) (*Result, error) {
	canon, err := resolveRoot(p.fs, path)
	if err != nil {
		return nil, err
	}

	files := make(map[string]struct{})
	msg, err := p.parseFile(canon, parent, nil, files)
	if err != nil {
		return nil, err
	}

	res := &Result{Message: msg, Files: make([]string, 0, len(files))}
	for f := range files {
		res.Files = append(res.Files, f)
	}
	sort.Strings(res.Files)
	return res, nil
}

// parseFile parses one file with path pushed on the include stack. A nil
// message without error means the file's type is unknown and tolerated;
// only files that produce a record are added to files.
func (p *Parser) parseFile(path string, parent *value.Message, stack []string, files map[string]struct{}) (*value.Message, error) {
	src, err := p.fs.ReadFile(path)
	if err != nil {
		return nil, lexer.Errorf("Unable to read %s: %v", path, err).Wrap(ErrIncludeNotFound)
	}
	p.log.Debug().Str("file", path).Int("depth", len(stack)).Msg("parsing config file")

	tz := lexer.New(filepath.Base(path), src)
	s := &state{
		p:      p,
		tz:     tz,
		env:    newEnvironment(tz),
		path:   path,
		stack:  append(stack[:len(stack):len(stack)], path),
		files:  files,
		strict: p.strict,
	}
	msg, err := s.parse(parent)
	if err != nil || msg == nil {
		return nil, err
	}
	files[path] = struct{}{}
	return msg, nil
}

type stage int

const (
	stageIncludes stage = iota
	stageDefines
	stageMessage
)

// state is the parse state of one file.
type state struct {
	p      *Parser
	tz     *lexer.Tokenizer
	env    *environment
	path   string
	stack  []string
	files  map[string]struct{}
	strict bool
	// literal accepts boolean word forms and is set when parsing
	// standalone value text.
	literal bool
}

func (s *state) parse(parent *value.Message) (*value.Message, error) {
	current := stageIncludes
	var result *value.Message
	done := false

	for {
		tok, err := s.tz.Peek()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			break
		}
		if done {
			return nil, s.tz.Failure(tok, "Unexpected token '%s', expected end of file.", tok.Text)
		}

		switch {
		case tok.Text == wordInclude:
			if current != stageIncludes {
				return nil, s.tz.Failure(tok, "Include added after defines or message. Only one def block allowed.")
			}
			_, _ = s.tz.Next()
			if err := s.parseInclude(); err != nil {
				return nil, err
			}
		case tok.Text == wordDef:
			current = stageDefines
			_, _ = s.tz.Next()
			if err := s.parseDefinitions(); err != nil {
				return nil, err
			}
		case tok.IsQualifiedIdentifier():
			current = stageMessage
			_, _ = s.tz.Next()
			msg, ok, err := s.parseConfigMessage(tok, parent)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			result = msg
			done = true
		default:
			return nil, s.tz.Failure(tok, "Unexpected token '%s'. Expected include, defines or message type", tok.Text)
		}
	}
	if result == nil {
		return nil, lexer.Errorf("No message in config: %s", filepath.Base(s.path)).Wrap(ErrNoMessage)
	}
	return result, nil
}

func (s *state) parseInclude() error {
	fileTok, err := s.tz.ExpectLiteral("file to be included")
	if err != nil {
		return err
	}
	name, err := fileTok.DecodeLiteral(s.strict)
	if err != nil {
		return s.tz.Failure(fileTok, "%v", err)
	}

	included, err := resolveInclude(s.p.fs, s.path, name)
	if err != nil {
		return s.tz.Failure(fileTok, "%v", err).Wrap(ErrIncludeNotFound)
	}
	for _, f := range s.stack {
		if f == included {
			chain := make([]string, 0, len(s.stack)+1)
			for _, p := range s.stack {
				chain = append(chain, filepath.Base(p))
			}
			chain = append(chain, filepath.Base(included))
			return s.tz.Failure(fileTok, "Circular includes detected: %s", strings.Join(chain, " -> ")).Wrap(ErrCircularInclude)
		}
	}

	msg, err := s.p.parseFile(included, nil, s.stack, s.files)
	if err != nil {
		return err
	}
	if msg == nil {
		s.p.log.Debug().Str("file", included).Msg("include of unknown type ignored")
	}

	asTok, err := s.tz.Expect("the token 'as'")
	if err != nil {
		return err
	}
	if asTok.Text != wordAs {
		return s.tz.Failure(asTok, "Expected token 'as' after included file \"%s\".", name)
	}
	alias, err := s.tz.ExpectIdentifier("include alias")
	if err != nil {
		return err
	}
	if isReserved(alias.Text) {
		return s.tz.Failure(alias, "Alias \"%s\" is a reserved word.", alias.Text).Wrap(ErrReference)
	}
	if s.env.has(alias.Text) {
		return s.tz.Failure(alias, "Alias \"%s\" is already used.", alias.Text).Wrap(ErrReference)
	}
	var v value.Value
	if msg != nil {
		v = msg
	}
	s.env.include(alias, v)
	return s.skipLineSep()
}

func (s *state) parseDefinitions() error {
	tok, err := s.tz.Expect("defines group start or identifier")
	if err != nil {
		return err
	}
	if tok.IsIdentifier() {
		return s.parseDefinition(tok)
	}
	if !tok.IsSymbol(lexer.MessageStart) {
		return s.tz.Failure(tok, "Unexpected token after def: '%s'", tok.Text)
	}

	for {
		tok, err := s.tz.Expect("define or end")
		if err != nil {
			return err
		}
		if tok.IsSymbol(lexer.MessageEnd) {
			return nil
		}
		if err := s.parseDefinition(tok); err != nil {
			return err
		}
		if err := s.skipLineSep(); err != nil {
			return err
		}
	}
}

func (s *state) parseDefinition(name *lexer.Token) error {
	if !name.IsIdentifier() {
		return s.tz.Failure(name, "Token '%s' is not valid reference name.", name.Text).Wrap(ErrReference)
	}
	if err := s.env.declare(name); err != nil {
		return err
	}
	if _, err := s.tz.ExpectSymbol("def value sep", lexer.FieldValueSep); err != nil {
		return err
	}
	v, err := s.parseDefinitionValue()
	if err != nil {
		return err
	}
	s.env.define(name.Text, v)
	return nil
}

// parseConfigMessage parses the root message after its type token. The
// second result is false when the type is unknown and tolerated.
func (s *state) parseConfigMessage(typeTok *lexer.Token, parent *value.Message) (*value.Message, bool, error) {
	desc, err := s.p.reg.LookupMessage(typeTok.Text)
	if err != nil {
		if errors.Is(err, schema.ErrNoSuchType) && !s.strict && len(s.stack) > 1 {
			return nil, false, nil
		}
		return nil, false, s.tz.Failure(typeTok, "Unknown declared type: %s", typeTok.Text).Wrap(ErrUnknownType)
	}

	b := value.NewBuilder(desc)
	if parent != nil {
		if !schema.Same(parent.Descriptor(), desc) {
			return nil, false, s.tz.Failure(typeTok, "Loaded config type %s does not match parent %s",
				desc.QualifiedName(), parent.Descriptor().QualifiedName())
		}
		if err := b.Merge(parent); err != nil {
			return nil, false, s.tz.Failure(typeTok, "%v", err)
		}
	}

	sym, err := s.tz.ExpectSymbol("config start", lexer.MessageStart, lexer.KeyValueSep, lexer.FieldValueSep)
	if err != nil {
		return nil, false, err
	}
	if sym != lexer.MessageStart {
		if parent != nil {
			return nil, false, s.tz.Failure(typeTok, "Config in '%s' has both defined parent and inherits from", filepath.Base(s.path))
		}
		ref, err := s.tz.Expect("extending reference")
		if err != nil {
			return nil, false, err
		}
		if !ref.IsReferenceIdentifier() || isReserved(ref.Text) {
			return nil, false, s.tz.Failure(ref, "Unexpected token %s, expected reference identifier", ref.Text)
		}
		base, err := s.resolveRequired(ref, desc)
		if err != nil {
			return nil, false, err
		}
		if err := b.Merge(base.(*value.Message)); err != nil {
			return nil, false, s.tz.Failure(ref, "%v", err)
		}
		if _, err := s.tz.ExpectSymbol("config start", lexer.MessageStart); err != nil {
			return nil, false, err
		}
	}

	if err := s.parseMessage(b); err != nil {
		return nil, false, err
	}
	return b.Build(), true, nil
}

// skipLineSep consumes one optional ',' or ';'.
func (s *state) skipLineSep() error {
	tok, err := s.tz.Peek()
	if err != nil {
		return err
	}
	if tok != nil && (tok.IsSymbol(lexer.LineSep1) || tok.IsSymbol(lexer.LineSep2)) {
		_, _ = s.tz.Next()
	}
	return nil
}

// peekSymbol reports whether the next token is the symbol c.
func (s *state) peekSymbol(c byte) (bool, error) {
	tok, err := s.tz.Peek()
	if err != nil {
		return false, err
	}
	return tok != nil && tok.IsSymbol(c), nil
}
