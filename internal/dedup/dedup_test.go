package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/testutil"
)

func TestContentKey(t *testing.T) {
	assert.Equal(t, "C1\x1fT1\x1f2024-01-01 10:00", ContentKey("C1", "T1", "2024-01-01 10:00"))
	assert.Equal(t, "\x1f\x1f", ContentKey("", "", ""))

	// The separator keeps field boundaries distinct.
	assert.NotEqual(t, ContentKey("C1T", "1", "x"), ContentKey("C1", "T1", "x"))
}

func TestIdentify(t *testing.T) {
	ids := Identify(testutil.RecordA())
	assert.Equal(t, "AX-001", ids.Primary)
	assert.Equal(t, ContentKey("C1", "T1", "2024-01-01 10:00"), ids.Content)
}

func TestIsDuplicate(t *testing.T) {
	existing := []Identities{Identify(testutil.RecordA())}

	t.Run("same id", func(t *testing.T) {
		c := testutil.Record("AX-001", "C2", "T2", "2024-02-02 11:00")
		assert.True(t, IsDuplicate(c, existing))
	})

	t.Run("same content", func(t *testing.T) {
		assert.True(t, IsDuplicate(testutil.RecordB(), existing))
	})

	t.Run("distinct", func(t *testing.T) {
		c := testutil.Record("AX-003", "C1", "T1", "2024-01-01 10:01")
		assert.False(t, IsDuplicate(c, existing))
	})

	t.Run("empty population", func(t *testing.T) {
		assert.False(t, IsDuplicate(testutil.RecordA(), nil))
	})
}

func TestIndex_AdmitFirstSeenWins(t *testing.T) {
	ix := NewIndex()

	assert.True(t, ix.Admit(Identify(testutil.RecordA())))
	assert.False(t, ix.Admit(Identify(testutil.RecordB())))
	assert.False(t, ix.Admit(Identify(testutil.RecordA())))
	assert.Equal(t, 1, ix.Len())
}

func TestUnique(t *testing.T) {
	c := testutil.Record("AX-003", "C3", "T3", "2024-01-03 09:00")
	records := []acta.Record{testutil.RecordA(), testutil.RecordB(), c, testutil.RecordA()}

	got := Unique(records)

	require.Len(t, got, 2)
	assert.Equal(t, "AX-001", got[0].ID)
	assert.Equal(t, "AX-003", got[1].ID)
}

func TestFindDuplicates(t *testing.T) {
	c := testutil.Record("AX-003", "C3", "T3", "2024-01-03 09:00")
	sameIDOtherContent := testutil.Record("AX-003", "C9", "T9", "2024-01-09 09:00")
	records := []acta.Record{testutil.RecordA(), c, testutil.RecordB(), sameIDOtherContent}

	report := FindDuplicates(records)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Unique)
	assert.Equal(t, 2, report.Duplicates())
	require.Len(t, report.Groups, 2)

	assert.Equal(t, "AX-001", report.Groups[0].Keep.ID)
	require.Len(t, report.Groups[0].Dropped, 1)
	assert.Equal(t, "AX-002", report.Groups[0].Dropped[0].ID)

	assert.Equal(t, "AX-003", report.Groups[1].Keep.ID)
	assert.Equal(t, "C9", report.Groups[1].Dropped[0].Client.ContractNumber)
}

func TestFindDuplicates_NoDuplicates(t *testing.T) {
	report := FindDuplicates([]acta.Record{testutil.RecordA()})
	assert.Zero(t, report.Duplicates())
	assert.Empty(t, report.Groups)
}
