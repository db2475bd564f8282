package cache

import (
	"context"

	"github.com/google/uuid"
)

// A family is a group of keys invalidated together, such as every page of
// one listing. Entries are stored under the family's current generation tag.
// Bump moves readers to a fresh tag, so a load that began before the bump
// can only write under a key that is never read again.

const initialTag = "0"

func tagKey(family string) string { return "tag:" + family }

// Tag returns the current generation tag of family.
func Tag(ctx context.Context, c Cache, family string) (string, error) {
	v, ok, err := c.Get(ctx, tagKey(family))
	if err != nil {
		return "", err
	}
	if !ok {
		return initialTag, nil
	}
	return string(v), nil
}

// Bump starts a new generation for family. Entries written under earlier
// tags expire with their own TTL.
func Bump(ctx context.Context, c Cache, family string) error {
	return c.Set(ctx, tagKey(family), []byte(uuid.NewString()), 0)
}

// TaggedKey is the key of suffix within family at tag. An empty suffix names
// the single entry of the family.
func TaggedKey(family, tag, suffix string) string {
	if suffix == "" {
		return family + ":" + tag
	}
	return family + ":" + tag + ":" + suffix
}
