package channelstate

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// balances builds a mapping from alternating id/amount pairs.
func balances(t *testing.T, kv ...any) Balances {
	t.Helper()
	require.Zero(t, len(kv)%2, "odd number of id/amount arguments")

	b := make(Balances, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		b[kv[i].(string)] = big.NewInt(int64(kv[i+1].(int)))
	}

	return b
}

func randomBalances(rng *rand.Rand) Balances {
	b := make(Balances)
	for i := range rng.Intn(6) {
		b[string(rune('a'+i))] = big.NewInt(rng.Int63n(1000))
	}

	return b
}

func TestBalances_Sum(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Balances{}.Sum().Sign())
	assert.Zero(t, Balances(nil).Sum().Sign())
	assert.Equal(t, "60", balances(t, "a", 10, "b", 20, "c", 30).Sum().String())

	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	require.True(t, ok)

	b := Balances{"a": huge, "b": huge}
	assert.Equal(t, "680564733841876926926749214863536422912", b.Sum().String())
	assert.Equal(t, "340282366920938463463374607431768211456", huge.String(), "input mutated")
}

func TestBalances_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, balances(t, "a", 0, "b", 5).Validate())
	require.NoError(t, Balances{}.Validate())

	err := Balances{"a": big.NewInt(-1)}.Validate()
	require.ErrorIs(t, err, ErrNegativeAmount)
	assert.Contains(t, err.Error(), `"a"`)

	err = Balances{"b": nil}.Validate()
	require.ErrorIs(t, err, ErrNilAmount)
}

func TestIsValidTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		deposit int64
		prev    []any
		next    []any
		want    bool
	}{
		{
			name:    "empty_prev_single_next_below_deposit",
			deposit: 20,
			prev:    nil,
			next:    []any{"a", 10},
			want:    true,
		},
		{
			name:    "next_sum_exceeds_deposit",
			deposit: 20,
			prev:    nil,
			next:    []any{"a", 10, "b", 20},
			want:    false,
		},
		{
			name:    "next_sum_equals_deposit",
			deposit: 30,
			prev:    []any{"a", 10},
			next:    []any{"a", 10, "b", 20},
			want:    false,
		},
		{
			name:    "one_participant_decreased_while_total_grew",
			deposit: 100,
			prev:    []any{"a", 30, "b", 10, "e", 20},
			next:    []any{"a", 30, "b", 10, "e", 10, "f", 30},
			want:    false,
		},
		{
			name:    "participant_dropped_from_next",
			deposit: 100,
			prev:    []any{"a", 30, "b", 0},
			next:    []any{"a", 40},
			want:    false,
		},
		{
			name:    "empty_next_with_non_empty_prev",
			deposit: 100,
			prev:    []any{"a", 0},
			next:    nil,
			want:    false,
		},
		{
			name:    "unchanged_state",
			deposit: 100,
			prev:    []any{"a", 30, "b", 10},
			next:    []any{"a", 30, "b", 10},
			want:    true,
		},
		{
			name:    "growth_and_new_participant",
			deposit: 100,
			prev:    []any{"a", 30, "b", 10},
			next:    []any{"a", 35, "b", 10, "c", 50},
			want:    true,
		},
		{
			name:    "both_empty_positive_deposit",
			deposit: 1,
			prev:    nil,
			next:    nil,
			want:    true,
		},
		{
			name:    "both_empty_zero_deposit",
			deposit: 0,
			prev:    nil,
			next:    nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prev := balances(t, tt.prev...)
			next := balances(t, tt.next...)

			got := IsValidTransition(big.NewInt(tt.deposit), prev, next)
			assert.Equal(t, tt.want, got)

			// same inputs, same verdict
			assert.Equal(t, got, IsValidTransition(big.NewInt(tt.deposit), prev, next))
		})
	}
}

func TestIsValidTransition_NilDeposit(t *testing.T) {
	t.Parallel()

	assert.False(t, IsValidTransition(nil, Balances{}, balances(t, "a", 1)))
}

func TestIsValidTransition_Properties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))

	for range 500 {
		deposit := big.NewInt(rng.Int63n(3000))
		prev := randomBalances(rng)
		next := randomBalances(rng)

		got := IsValidTransition(deposit, prev, next)

		if next.Sum().Cmp(deposit) >= 0 {
			require.False(t, got, "deposit=%s next=%v", deposit, next)
		}

		if next.Sum().Cmp(prev.Sum()) < 0 {
			require.False(t, got, "prev=%v next=%v", prev, next)
		}

		for id, before := range prev {
			after, ok := next[id]
			if !ok || after.Cmp(before) < 0 {
				require.False(t, got, "participant %s prev=%v next=%v", id, prev, next)
			}
		}
	}
}

func TestIsValidTransition_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	deposit := big.NewInt(100)
	prev := balances(t, "a", 30)
	next := balances(t, "a", 40, "b", 5)

	require.True(t, IsValidTransition(deposit, prev, next))
	assert.Equal(t, "100", deposit.String())
	assert.Equal(t, "30", prev["a"].String())
	assert.Equal(t, "40", next["a"].String())
	assert.Equal(t, "5", next["b"].String())
}

func TestIsHealthy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		our       []any
		approved  []any
		wantRatio int64
		want      bool
	}{
		{
			name:      "approved_equals_our_accounting",
			our:       []any{"a", 50},
			approved:  []any{"a", 50},
			wantRatio: 1000,
			want:      true,
		},
		{
			name:      "approved_greater_than_our_accounting",
			our:       []any{"a", 50},
			approved:  []any{"a", 60},
			wantRatio: 1000,
			want:      true,
		},
		{
			name:      "approved_slightly_less_within_margin",
			our:       []any{"a", 80},
			approved:  []any{"a", 79},
			wantRatio: 987,
			want:      true,
		},
		{
			name:      "approved_less_and_unhealthy",
			our:       []any{"a", 80},
			approved:  []any{"a", 70},
			wantRatio: 875,
			want:      false,
		},
		{
			name:      "missing_participant_on_boundary",
			our:       []any{"a", 55, "b", 5, "c", 40},
			approved:  []any{"a", 70, "c", 40},
			wantRatio: 950,
			want:      true,
		},
		{
			name:      "several_participants_half_corroborated",
			our:       []any{"a", 10, "b", 20, "c", 30},
			approved:  []any{"a", 20, "c", 20},
			wantRatio: 500,
			want:      false,
		},
		{
			name:      "approved_only_participants_are_ignored",
			our:       []any{"a", 100},
			approved:  []any{"a", 90, "z", 1000},
			wantRatio: 900,
			want:      false,
		},
		{
			name:      "truncation_just_below_boundary",
			our:       []any{"a", 1999},
			approved:  []any{"a", 1898},
			wantRatio: 949,
			want:      false,
		},
		{
			name:      "no_shared_participants",
			our:       []any{"a", 10},
			approved:  []any{"b", 10},
			wantRatio: 0,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			our := balances(t, tt.our...)
			approved := balances(t, tt.approved...)

			ratio, ok := HealthRatio(our, approved)
			require.True(t, ok)
			assert.Equal(t, tt.wantRatio, ratio.Int64())
			assert.Equal(t, tt.want, IsHealthy(our, approved))
		})
	}
}

func TestIsHealthy_ZeroOurTotal(t *testing.T) {
	t.Parallel()

	for name, our := range map[string]Balances{
		"nil":        nil,
		"empty":      {},
		"zero_value": balances(t, "a", 0, "b", 0),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ratio, ok := HealthRatio(our, balances(t, "a", 10))
			assert.False(t, ok)
			assert.Nil(t, ratio)
			assert.False(t, IsHealthy(our, balances(t, "a", 10)))
		})
	}
}

func TestIsHealthy_SelfComparison(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))

	for range 200 {
		our := randomBalances(rng)
		if our.Sum().Sign() == 0 {
			continue
		}

		require.True(t, IsHealthy(our, our), "our=%v", our)
	}
}

func TestIsHealthy_ArbitraryPrecision(t *testing.T) {
	t.Parallel()

	// 10^30 base units on our side, 95% of that approved.
	ours, ok := new(big.Int).SetString("1000000000000000000000000000000", 10)
	require.True(t, ok)
	theirs, ok := new(big.Int).SetString("950000000000000000000000000000", 10)
	require.True(t, ok)

	our := Balances{"a": ours}
	approved := Balances{"a": theirs}

	ratio, ok := HealthRatio(our, approved)
	require.True(t, ok)
	assert.Equal(t, "950", ratio.String())
	assert.True(t, IsHealthy(our, approved))

	// inputs untouched
	assert.Equal(t, "1000000000000000000000000000000", ours.String())
	assert.Equal(t, "950000000000000000000000000000", theirs.String())
}
