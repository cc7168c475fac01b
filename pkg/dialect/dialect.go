// Package dialect provides SQL dialect configuration for statement rendering.
//
// This package contains the public contract for dialect definitions used by
// the SQL writer and the database adapters. Concrete dialects are registered
// from pkg/dialects/*/ packages.
package dialect

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase.
	NormUppercase
	// NormCaseInsensitive compares identifiers case-insensitively (SQL Server, SQLite).
	NormCaseInsensitive
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// LimitStyle defines how a row limit is rendered.
type LimitStyle int

const (
	// LimitClause renders a trailing LIMIT n.
	LimitClause LimitStyle = iota
	// TopClause renders SELECT TOP n.
	TopClause
	// FetchFirstClause renders a trailing FETCH FIRST n ROWS ONLY.
	FetchFirstClause
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for parameters.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ... for parameters.
	PlaceholderDollar
	// PlaceholderAt uses @p1, @p2, ... for parameters.
	PlaceholderAt
)

// Portable function names. Translators emit calls to these names and each
// dialect maps them onto its own functions.
const (
	FnIfNull   = "ifnull"   // ifnull(value, replacement)
	FnToday    = "today"    // today()
	FnNow      = "now"      // now()
	FnDateTime = "datetime" // datetime('yyyy-mm-ddThh:mm:ss')
	FnDateAdd  = "dateadd"  // dateadd(date, amount, unit)
	FnDateDiff = "datediff" // datediff(unit, start, end)
	FnDateFrom = "datefrom" // datefrom(datetime)
	FnTruncDiv = "truncdiv" // truncdiv(a, b)
	FnMod      = "mod"      // mod(a, b)
	FnCeiling  = "ceiling"
	FnFloor    = "floor"
	FnAbs      = "abs"
	FnRound    = "round"
	FnPower    = "power"
	FnUpper    = "upper"
	FnLower    = "lower"
	FnLength   = "length"
)

// Renderer renders a function call from its already rendered arguments.
type Renderer func(args []string) string

// Config is the pure data configuration of a dialect.
type Config struct {
	Name        string
	Identifiers IdentifierConfig
	Placeholder PlaceholderStyle
	Limit       LimitStyle

	// Concat is the string concatenation operator.
	Concat string
	// BatchSeparator is written on its own line after each statement of a
	// script, e.g. GO. Empty means none.
	BatchSeparator string
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Config

	functions     map[string]Renderer
	units         map[string]string
	reservedWords map[string]struct{}
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case NormUppercase:
		return strings.ToUpper(name)
	default:
		return strings.ToLower(name)
	}
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[d.NormalizeName(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdentifierIfNeeded quotes an identifier only if it's a reserved word
// or not a plain identifier.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !plainIdentifier.MatchString(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case PlaceholderAt:
		return "@p" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// Function returns the renderer of a portable function name.
func (d *Dialect) Function(name string) (Renderer, bool) {
	r, ok := d.functions[strings.ToLower(name)]
	return r, ok
}

// Functions returns the names of all functions with a renderer, sorted.
func (d *Dialect) Functions() []string {
	names := make([]string, 0, len(d.functions))
	for name := range d.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unit returns the dialect spelling of a date part.
func (d *Dialect) Unit(name string) string {
	if u, ok := d.units[strings.ToLower(name)]; ok {
		return u
	}
	return strings.ToUpper(name)
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return New(Config{
		Name: name,
		Identifiers: IdentifierConfig{
			Quote:         `"`,
			QuoteEnd:      `"`,
			Escape:        `""`,
			Normalization: NormLowercase,
		},
		Concat: "||",
	})
}

// New creates a dialect builder from a Config.
func New(cfg Config) *Builder {
	if cfg.Concat == "" {
		cfg.Concat = "||"
	}
	return &Builder{
		dialect: &Dialect{
			Config:        cfg,
			functions:     make(map[string]Renderer),
			units:         make(map[string]string),
			reservedWords: make(map[string]struct{}),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm NormalizationStrategy) *Builder {
	b.dialect.Identifiers = IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// Limit sets how row limits are rendered.
func (b *Builder) Limit(style LimitStyle) *Builder {
	b.dialect.Limit = style
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Concat sets the string concatenation operator.
func (b *Builder) Concat(op string) *Builder {
	b.dialect.Concat = op
	return b
}

// BatchSeparator sets the line written between script statements.
func (b *Builder) BatchSeparator(sep string) *Builder {
	b.dialect.BatchSeparator = sep
	return b
}

// Function registers a template for a function name. {0}, {1}, ... are
// replaced by the rendered arguments and {*} by all of them joined with
// ", ".
func (b *Builder) Function(name, template string) *Builder {
	return b.FunctionFunc(name, Template(template))
}

// FunctionFunc registers a renderer for a function name.
func (b *Builder) FunctionFunc(name string, r Renderer) *Builder {
	b.dialect.functions[strings.ToLower(name)] = r
	return b
}

// Units registers date part spellings.
func (b *Builder) Units(units map[string]string) *Builder {
	for k, v := range units {
		b.dialect.units[strings.ToLower(k)] = v
	}
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[b.dialect.NormalizeName(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect. Portable functions the dialect did
// not define fall back to the standard renderers, and a dialect without
// reserved words of its own uses StandardReservedWords.
func (b *Builder) Build() *Dialect {
	for name, tmpl := range standardFunctions {
		if _, ok := b.dialect.functions[name]; !ok {
			b.dialect.functions[name] = Template(tmpl)
		}
	}
	if len(b.dialect.reservedWords) == 0 {
		b.WithReservedWords(StandardReservedWords...)
	}
	return b.dialect
}

// Template compiles a function template into a Renderer.
func Template(template string) Renderer {
	return func(args []string) string {
		var sb strings.Builder
		for i := 0; i < len(template); i++ {
			c := template[i]
			if c != '{' {
				sb.WriteByte(c)
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				sb.WriteString(template[i:])
				break
			}
			key := template[i+1 : i+end]
			switch n, err := strconv.Atoi(key); {
			case key == "*":
				sb.WriteString(strings.Join(args, ", "))
			case err == nil && n >= 0 && n < len(args):
				sb.WriteString(args[n])
			default:
				sb.WriteString(template[i : i+end+1])
			}
			i += end
		}
		return sb.String()
	}
}
