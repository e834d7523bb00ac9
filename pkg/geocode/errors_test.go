package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/georef/internal/resilience"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"nil", nil, KindOther},
		{"plain", errors.New("boom"), KindOther},
		{"classified", newError(KindQuery, "google", 400, errors.New("bad")), KindQuery},
		{"wrapped by eris", eris.Wrap(newError(KindService, "google", 503, errors.New("down")), "outer"), KindService},
		{"inside exhausted", &resilience.ExhaustedError{Attempts: 3, Err: newError(KindTimeout, "x", 0, errors.New("slow"))}, KindTimeout},
		{"bare deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := newError(KindService, "nominatim", 503, errors.New("returned status 503"))
	assert.Equal(t, "geocode: nominatim service error (status 503): returned status 503", err.Error())

	err = newError(KindTimeout, "google", 0, errors.New("slow"))
	assert.Equal(t, "geocode: google timeout error: slow", err.Error())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "service", KindService.String())
	assert.Equal(t, "query", KindQuery.String())
	assert.Equal(t, "other", KindOther.String())
}
