package chainsmith

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
	"gopkg.in/yaml.v3"
)

// Subject holds the key/value pairs of an OpenSSL style subject string such as
// "/C=US/ST=Utah/L=Lehi/O=Your Company, Inc./OU=IT/CN=yourdomain.com".
//
// Keys are unique and the last write for a key wins. The mapping has no order of its own; String
// produces a canonical, sorted form. Keys outside the supported attribute set are kept here but
// dropped when converting to a DistinguishedName.
type Subject struct {
	_Fields map[string]string
	_Logger *slog.Logger
}

// SubjectOptionFunc configures a Subject using the functional options pattern.
type SubjectOptionFunc func(subject *Subject)

// SubjectWithLogger sets the logger that receives diagnostics, such as skipped attribute keys.
func SubjectWithLogger(logger *slog.Logger) SubjectOptionFunc {
	return func(subject *Subject) {
		subject._Logger = logger
	}
}

// NewSubject returns an empty Subject.
func NewSubject(options ...SubjectOptionFunc) (subject *Subject) {
	subject = &Subject{
		_Fields: map[string]string{},
		_Logger: discardLogger(),
	}

	for _, f := range options {
		f(subject)
	}

	return
}

// ParseSubject parses a "/K=V/K=V" subject string.
//
// The input is split on "/" and every segment is split on its first "=". Empty segments, such as the
// one produced by a leading "/", and segments without "=" are ignored. Parsing never fails.
//
// Parameters:
//   - raw (string): The subject string.
//   - options (...SubjectOptionFunc): Options applied to the returned Subject.
//
// Returns:
//   - subject (*Subject): The parsed subject.
func ParseSubject(raw string, options ...SubjectOptionFunc) (subject *Subject) {
	subject = NewSubject(options...)

	subject.parse(raw)

	return
}

func (s *Subject) parse(raw string) {
	for segment := range strings.SplitSeq(raw, "/") {
		if segment == "" {
			continue
		}

		key, value, found := strings.Cut(segment, "=")
		if !found {
			continue
		}

		s.Set(key, value)
	}
}

// Set stores value under key, replacing any previous value.
func (s *Subject) Set(key, value string) {
	if s._Fields == nil {
		s._Fields = map[string]string{}
	}

	s._Fields[key] = value
}

// Get returns the value stored under key, or fallback when the key is absent.
func (s *Subject) Get(key, fallback string) (value string) {
	value, ok := s._Fields[key]
	if !ok {
		value = fallback
	}

	return
}

// Len returns the number of stored keys.
func (s *Subject) Len() int {
	return len(s._Fields)
}

// Keys returns the stored keys in lexicographic order.
func (s *Subject) Keys() []string {
	return slices.Sorted(maps.Keys(s._Fields))
}

// Merge copies every entry of other into s. Entries of other win.
func (s *Subject) Merge(other *Subject) {
	if other == nil {
		return
	}

	for key, value := range other._Fields {
		s.Set(key, value)
	}
}

// Clone returns an independent copy of s sharing the same logger.
func (s *Subject) Clone() (cloned *Subject) {
	cloned = NewSubject(SubjectWithLogger(s.logger()))

	maps.Copy(cloned._Fields, s._Fields)

	return
}

// String returns the canonical form of the subject: every "K=V" pair sorted lexicographically and
// joined with "/", always starting with "/". An empty subject renders as "/".
func (s *Subject) String() string {
	pairs := make([]string, 0, len(s._Fields))

	for key, value := range s._Fields {
		pairs = append(pairs, key+"="+value)
	}

	slices.Sort(pairs)

	return "/" + strings.Join(pairs, "/")
}

// DistinguishedName converts the subject into an ordered attribute list.
//
// Only keys of the supported set (C, CN, L, ST, O, OU) are emitted, in sorted key order. Every other
// key is skipped with a warning on the subject's logger.
//
// Returns:
//   - dn (DistinguishedName): One PrintableString attribute per recognised key.
func (s *Subject) DistinguishedName() (dn DistinguishedName) {
	for _, key := range s.Keys() {
		attributeType, ok := AttributeTypeFromKey(key)
		if !ok {
			s.logger().Warn("skipping unknown distinguished name attribute", slog.String("key", key))

			continue
		}

		dn.Push(attributeType, s._Fields[key])
	}

	return
}

// UnmarshalYAML accepts either a "/K=V" scalar or a mapping of keys to values.
func (s *Subject) UnmarshalYAML(value *yaml.Node) (err error) {
	if s._Fields == nil {
		s._Fields = map[string]string{}
	}

	switch value.Kind {
	case yaml.ScalarNode:
		s.parse(value.Value)
	case yaml.MappingNode:
		fields := map[string]string{}

		if err = value.Decode(&fields); err != nil {
			err = hqgoerrors.Wrap(err, "failed to decode subject mapping", hqgoerrors.WithField("line", strconv.Itoa(value.Line)))

			return
		}

		for key, field := range fields {
			s.Set(key, field)
		}
	default:
		err = hqgoerrors.New("subject must be a string or a mapping", hqgoerrors.WithField("line", strconv.Itoa(value.Line)))
	}

	return
}

func (s *Subject) logger() *slog.Logger {
	if s._Logger == nil {
		return discardLogger()
	}

	return s._Logger
}
