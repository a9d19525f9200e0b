package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oleiade/gomme"
)

var (
	ErrInvalidRange        = errors.New("invalid range")
	ErrMultiRange          = errors.New("multiple ranges not supported")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive, 0-indexed byte interval within a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a file of the
// given size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// rangeSpec holds the raw digit runs from the grammar; an empty string
// means the bound was omitted.
type rangeSpec struct {
	start string
	end   string
}

// rangeGrammar matches `bytes=` start? `-` end? across the whole header.
var rangeGrammar = complete(
	gomme.Map(
		gomme.Preceded(
			gomme.Token[string]("bytes="),
			gomme.SeparatedPair(
				gomme.Optional(gomme.Digit1[string]()),
				gomme.Char[string]('-'),
				gomme.Optional(gomme.Digit1[string]()),
			),
		),
		func(p gomme.PairContainer[string, string]) (rangeSpec, error) {
			return rangeSpec{start: p.Left, end: p.Right}, nil
		},
	),
)

// ParseRange interprets an HTTP Range header against a file of fileSize
// bytes. The bool result reports whether a range was requested at all.
//
// Only single prefix ranges are supported. An omitted end means the rest of
// the file, an omitted or unparsable start means 0. Multi-range lists are
// rejected up front with ErrMultiRange.
func ParseRange(header string, fileSize int64) (ByteRange, bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ByteRange{}, false, nil
	}

	if strings.Contains(header, ",") {
		return ByteRange{}, false, fmt.Errorf("parsing range %q: %w", header, ErrMultiRange)
	}

	result := rangeGrammar(header)
	if result.Err != nil {
		return ByteRange{}, false, fmt.Errorf("parsing range %q: %w", header, ErrInvalidRange)
	}
	spec := result.Output

	var start int64
	if spec.start != "" {
		if n, err := strconv.ParseInt(spec.start, 10, 64); err == nil {
			start = n
		}
	}

	end := fileSize - 1
	explicitEnd := spec.end != ""
	if explicitEnd {
		n, err := strconv.ParseInt(spec.end, 10, 64)
		if err != nil {
			return ByteRange{}, false, fmt.Errorf("parsing range %q: %w", header, ErrRangeNotSatisfiable)
		}
		end = n
	}

	if start >= fileSize || (explicitEnd && end >= fileSize) {
		return ByteRange{}, false, fmt.Errorf("parsing range %q: %w", header, ErrRangeNotSatisfiable)
	}
	if end < start {
		return ByteRange{}, false, fmt.Errorf("parsing range %q: %w", header, ErrInvalidRange)
	}

	return ByteRange{Start: start, End: end}, true, nil
}

// complete succeeds only when parser consumes the entire input.
func complete[Input gomme.Bytes, Output any](
	parser gomme.Parser[Input, Output],
) gomme.Parser[Input, Output] {
	return func(input Input) gomme.Result[Output, Input] {
		result := parser(input)
		if result.Err != nil || len(result.Remaining) != 0 {
			return gomme.Failure[Input, Output](
				gomme.NewError(input, "complete"),
				input,
			)
		}
		return gomme.Success(result.Output, result.Remaining)
	}
}
