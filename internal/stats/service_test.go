package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/internal/storage/cache"
)

type fakeCounter struct {
	counts map[string]int64
	calls  []string
	err    error
}

func (f *fakeCounter) Count(ctx context.Context, table string) (int64, error) {
	f.calls = append(f.calls, table)
	return f.counts[table], f.err
}

func (f *fakeCounter) CountDistinct(ctx context.Context, table, column string) (int64, error) {
	f.calls = append(f.calls, table+"."+column)
	return f.counts[table+"."+column], f.err
}

func TestService_Counts(t *testing.T) {
	c := &fakeCounter{counts: map[string]int64{
		"email": 10, "email.address": 7, "rule_template": 3, "job": 42, "rule_detail": 5,
	}}
	s := NewService(c)
	ctx := context.Background()

	for _, tc := range []struct {
		fn   func(context.Context) (int64, error)
		want int64
	}{
		{s.CountEmails, 10},
		{s.CountUniqueEmails, 7},
		{s.CountRuleTemplates, 3},
		{s.CountJobs, 42},
		{s.CountRuleDetails, 5},
	} {
		got, err := tc.fn(ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	assert.Equal(t, []string{"email", "email.address", "rule_template", "job", "rule_detail"}, c.calls)
}

func TestService_CachedWithinTTL(t *testing.T) {
	c := &fakeCounter{counts: map[string]int64{"job": 1}}
	s := NewService(c, WithCache(cache.NewMemoryStore(), time.Minute))
	ctx := context.Background()

	n, err := s.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c.counts["job"] = 2
	n, err = s.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "second call is served from cache")
	assert.Len(t, c.calls, 1)
}

func TestService_ErrorNotCached(t *testing.T) {
	c := &fakeCounter{err: errors.New("relation \"job\" does not exist")}
	s := NewService(c, WithCache(cache.NewMemoryStore(), time.Minute))
	_, err := s.CountJobs(context.Background())
	assert.Error(t, err)

	c.err = nil
	c.counts = map[string]int64{"job": 9}
	n, err := s.CountJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
}

func TestTablesFromConfig(t *testing.T) {
	tables := TablesFromConfig(map[string]string{"jobs": "jobs", "emails": "", "email_address": "sender"})
	assert.Equal(t, "jobs", tables.Jobs)
	assert.Equal(t, "email", tables.Emails)
	assert.Equal(t, "sender", tables.EmailAddress)
	assert.Equal(t, "rule_detail", tables.RuleDetails)
}
