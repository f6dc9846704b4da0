package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
)

func resolutionKind(t *testing.T, err error) apperr.ResolutionKind {
	t.Helper()
	var re *apperr.ResolutionError
	require.True(t, errors.As(err, &re), "want ResolutionError, got %v", err)
	return re.Kind
}

func TestURLList(t *testing.T) {
	l, err := URLList{}.Resolve(context.Background(),
		"https://youtu.be/aaaaaaaaaaa, bbbbbbbbbbb\nhttps://www.youtube.com/watch?v=ccccccccccc&t=42")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Total)
	assert.Regexp(t, `^Videos [0-9a-f]{8}$`, l.Title)
	assert.Empty(t, l.ID)

	refs, err := Collect(l)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, models.VideoReference{URL: "bbbbbbbbbbb", Position: 1}, refs[1])
	assert.Equal(t, 2, refs[2].Position)
}

func TestURLListIndexNamePerList(t *testing.T) {
	resolve := func(ref string) *Listing {
		t.Helper()
		l, err := URLList{}.Resolve(context.Background(), ref)
		require.NoError(t, err)
		return l
	}
	a := resolve("aaaaaaaaaaa bbbbbbbbbbb")
	same := resolve("https://www.youtube.com/watch?v=bbbbbbbbbbb, https://youtu.be/aaaaaaaaaaa")
	other := resolve("aaaaaaaaaaa ccccccccccc")

	assert.Equal(t, a.Title, same.Title)
	assert.NotEqual(t, a.Title, other.Title)
}

func TestURLListMalformed(t *testing.T) {
	for _, ref := range []string{"", "  ", "https://youtu.be/aaaaaaaaaaa https://example.com/x"} {
		_, err := URLList{}.Resolve(context.Background(), ref)
		require.Error(t, err, ref)
		assert.Equal(t, apperr.ResolutionMalformed, resolutionKind(t, err))
	}
}

func TestListingSingleUse(t *testing.T) {
	l, err := URLList{}.Resolve(context.Background(), "aaaaaaaaaaa")
	require.NoError(t, err)

	_, err = Collect(l)
	require.NoError(t, err)

	_, err = Collect(l)
	assert.ErrorIs(t, err, ErrListingConsumed)

	again, err := URLList{}.Resolve(context.Background(), "aaaaaaaaaaa")
	require.NoError(t, err)
	refs, err := Collect(again)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestListingKnownTotal(t *testing.T) {
	assert.Nil(t, NewListing("", "", "", UnknownTotal, nil, nil).KnownTotal())
	n := NewListing("", "", "", 4, nil, nil).KnownTotal()
	require.NotNil(t, n)
	assert.Equal(t, 4, *n)
}

func TestListingCloseRunsOnce(t *testing.T) {
	calls := 0
	l := NewListing("", "", "", 0, func(func(models.VideoReference, error) bool) {}, func() { calls++ })
	_, _ = Collect(l)
	l.Close()
	assert.Equal(t, 1, calls)
}

type recordingResolver struct{ got string }

func (r *recordingResolver) Resolve(_ context.Context, ref string) (*Listing, error) {
	r.got = ref
	return NewListing("PL", "t", ref, 0, func(func(models.VideoReference, error) bool) {}, nil), nil
}

func TestAutoRouting(t *testing.T) {
	tests := []struct {
		ref      string
		playlist bool
	}{
		{"https://www.youtube.com/playlist?list=PLabcdefghij12", true},
		{"PLabcdefghij12", true},
		{"https://www.youtube.com/watch?v=aaaaaaaaaaa&list=PLabcdefghij12", true},
		{"https://www.youtube.com/watch?v=aaaaaaaaaaa", false},
		{"aaaaaaaaaaa bbbbbbbbbbb", false},
	}
	for _, tt := range tests {
		pl := &recordingResolver{}
		a := NewAuto(pl)
		_, err := a.Resolve(context.Background(), tt.ref)
		require.NoError(t, err, tt.ref)
		if tt.playlist {
			assert.Equal(t, tt.ref, pl.got, tt.ref)
		} else {
			assert.Empty(t, pl.got, tt.ref)
		}
	}
}
