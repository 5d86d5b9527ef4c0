package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex is used to parse a single segment of a path, e.g., `2` or `2[1]`.
var segmentRegex = regexp.MustCompile(`^(\d+)(?:\[(\d+)\])?$`)

// Parse creates a new Address by parsing its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	addr := &Address{}
	for _, segmentStr := range strings.Split(rawID, ".") {
		if segmentStr == "" {
			return nil, fmt.Errorf("identifier path contains empty segment")
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		position, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid position %q: %w", matches[1], err)
		}
		segment := NewSegment(position)
		if matches[2] != "" {
			iteration, err := strconv.Atoi(matches[2])
			if err != nil {
				return nil, fmt.Errorf("invalid iteration %q: %w", matches[2], err)
			}
			segment.Iteration = iteration
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}

// ParseFull splits a full id into its address and document id.
func ParseFull(fullID string) (*Address, string, error) {
	i := strings.LastIndex(fullID, ":")
	if i < 0 {
		return nil, "", fmt.Errorf("full id %q has no document part", fullID)
	}
	addr, err := Parse(fullID[:i])
	if err != nil {
		return nil, "", err
	}
	if fullID[i+1:] == "" {
		return nil, "", fmt.Errorf("full id %q has an empty document part", fullID)
	}
	return addr, fullID[i+1:], nil
}
