package slug_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/slug"
)

type fakeAuthority struct {
	mu          sync.Mutex
	taken       map[string]string // slug → restaurant
	checkErr    error
	generateErr error
	generated   int
	checked     []string

	blockOn string
	started chan string
}

func (f *fakeAuthority) CheckSlugAvailable(ctx context.Context, s, excluding string) (bool, error) {
	if f.started != nil {
		f.started <- s
	}
	if f.blockOn != "" && s == f.blockOn {
		<-ctx.Done()
		return false, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, s)
	if f.checkErr != nil {
		return false, f.checkErr
	}
	owner, ok := f.taken[s]
	return !ok || owner == excluding, nil
}

func (f *fakeAuthority) GenerateSlug(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return slug.Normalize(name), nil
}

func TestService_Generate_AuthoritativeAndFallbackAgree(t *testing.T) {
	ctx := context.Background()
	online := slug.NewService(&fakeAuthority{}, zap.NewNop())
	offline := slug.NewService(&fakeAuthority{generateErr: errors.New("connection refused")}, zap.NewNop())
	noAuthority := slug.NewService(nil, nil)

	assert.Equal(t, "cafe-deja-vu", online.Generate(ctx, "Café Déjà Vu!"))
	assert.Equal(t, "cafe-deja-vu", offline.Generate(ctx, "Café Déjà Vu!"))
	assert.Equal(t, "cafe-deja-vu", noAuthority.Generate(ctx, "Café Déjà Vu!"))
}

func TestService_Generate_EmptyNameSkipsAuthority(t *testing.T) {
	auth := &fakeAuthority{}
	svc := slug.NewService(auth, zap.NewNop())

	assert.Equal(t, "", svc.Generate(context.Background(), ""))
	assert.Zero(t, auth.generated)
}

func TestService_IsAvailable(t *testing.T) {
	auth := &fakeAuthority{taken: map[string]string{"la-piazza": "r1"}}
	svc := slug.NewService(auth, zap.NewNop())
	ctx := context.Background()

	assert.False(t, svc.IsAvailable(ctx, "la-piazza", "r2"))
	assert.True(t, svc.IsAvailable(ctx, "la-piazza", "r1"), "own slug stays available")
	assert.True(t, svc.IsAvailable(ctx, "trattoria", "r2"))
}

func TestService_IsAvailable_CaseInsensitive(t *testing.T) {
	auth := &fakeAuthority{taken: map[string]string{"la-piazza": "r1"}}
	svc := slug.NewService(auth, zap.NewNop())

	assert.False(t, svc.IsAvailable(context.Background(), "La-Piazza", "r2"))
	assert.Equal(t, []string{"la-piazza"}, auth.checked)
}

func TestService_IsAvailable_FailsClosed(t *testing.T) {
	ctx := context.Background()

	broken := slug.NewService(&fakeAuthority{checkErr: errors.New("timeout")}, zap.NewNop())
	assert.False(t, broken.IsAvailable(ctx, "anything", ""))

	none := slug.NewService(nil, zap.NewNop())
	assert.False(t, none.IsAvailable(ctx, "anything", ""))

	ok := slug.NewService(&fakeAuthority{}, zap.NewNop())
	assert.False(t, ok.IsAvailable(ctx, "not a slug", ""), "invalid slugs are never available")
	assert.False(t, ok.IsAvailable(ctx, "", ""))
}

func TestService_Unique(t *testing.T) {
	auth := &fakeAuthority{taken: map[string]string{
		"la-piazza":   "r1",
		"la-piazza-2": "r2",
	}}
	svc := slug.NewService(auth, zap.NewNop())

	got, err := svc.Unique(context.Background(), "La Piazza", "r3")
	require.NoError(t, err)
	assert.Equal(t, "la-piazza-3", got)

	got, err = svc.Unique(context.Background(), "La Piazza", "r1")
	require.NoError(t, err)
	assert.Equal(t, "la-piazza", got)
}

func TestService_Unique_Errors(t *testing.T) {
	svc := slug.NewService(&fakeAuthority{}, zap.NewNop())
	_, err := svc.Unique(context.Background(), "!!!", "")
	assert.ErrorIs(t, err, domain.ErrSlugInvalid)

	broken := slug.NewService(&fakeAuthority{checkErr: errors.New("down")}, zap.NewNop())
	_, err = broken.Unique(context.Background(), "La Piazza", "")
	assert.ErrorIs(t, err, domain.ErrSlugUnavailable)
}

func TestChecker_LastRequestWins(t *testing.T) {
	auth := &fakeAuthority{blockOn: "slow-slug", started: make(chan string, 2)}
	checker := slug.NewChecker(slug.NewService(auth, zap.NewNop()))
	ctx := context.Background()

	type outcome struct {
		res     slug.Result
		current bool
	}
	first := make(chan outcome, 1)
	go func() {
		res, current := checker.Check(ctx, "slow-slug", "r1")
		first <- outcome{res, current}
	}()
	require.Equal(t, "slow-slug", <-auth.started)

	res, current := checker.Check(ctx, "fast-slug", "r1")
	<-auth.started
	require.True(t, current)
	assert.True(t, res.Available)

	select {
	case o := <-first:
		assert.False(t, o.current, "superseded check must not be current")
		assert.Less(t, o.res.Seq, res.Seq)
	case <-time.After(time.Second):
		t.Fatal("superseded check was not cancelled")
	}

	latest, ok := checker.Latest()
	require.True(t, ok)
	assert.Equal(t, "fast-slug", latest.Slug)
	assert.True(t, latest.Available)
}

func TestChecker_LatestEmptyBeforeFirstCheck(t *testing.T) {
	checker := slug.NewChecker(slug.NewService(nil, nil))
	_, ok := checker.Latest()
	assert.False(t, ok)
}

func TestStoreAuthority_GeneratesLocally(t *testing.T) {
	got, err := slug.StoreAuthority{}.GenerateSlug(context.Background(), "Café Déjà Vu!")
	require.NoError(t, err)
	assert.Equal(t, "cafe-deja-vu", got)
}

const longName = "The Original Famous Family Owned Neapolitan Pizzeria And Trattoria Since 1952"

func TestService_Generate_LongNameFitsValidate(t *testing.T) {
	ctx := context.Background()
	for name, svc := range map[string]*slug.Service{
		"authority": slug.NewService(&fakeAuthority{}, zap.NewNop()),
		"local":     slug.NewService(nil, zap.NewNop()),
	} {
		got := svc.Generate(ctx, longName)
		assert.Equal(t, "the-original-famous-family-owned-neapolitan-pizzeria-and", got, name)
		assert.NoError(t, slug.Validate(got), name)
	}
}

func TestService_Unique_LongNameVariantsFit(t *testing.T) {
	base := "the-original-famous-family-owned-neapolitan-pizzeria-and"
	auth := &fakeAuthority{taken: map[string]string{base: "r1"}}
	svc := slug.NewService(auth, zap.NewNop())

	got, err := svc.Unique(context.Background(), longName, "r2")
	require.NoError(t, err)
	assert.Equal(t, base+"-2", got)
	assert.LessOrEqual(t, len(got), slug.MaxLength)
	assert.NoError(t, slug.Validate(got))
}
