package utils

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateETag(t *testing.T) {
	id := primitive.NewObjectID()
	now := time.Now()

	etag := GenerateETag(id, now)
	if !strings.HasPrefix(etag, `"`) || !strings.HasSuffix(etag, `"`) {
		t.Errorf("ETag %s must be quoted", etag)
	}

	if GenerateETag(id, now) != etag {
		t.Error("same inputs must produce the same ETag")
	}
	if GenerateETag(id, now.Add(time.Second)) == etag {
		t.Error("different update time must change the ETag")
	}
	if GenerateETag(primitive.NewObjectID(), now) == etag {
		t.Error("different id must change the ETag")
	}
}
