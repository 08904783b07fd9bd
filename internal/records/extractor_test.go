package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotifications = `## Personal Life Events

### Wedding Announcement
From: alice@example.com
Date: March 15, 2024
Subject: Getting married!

We are excited to announce our wedding this summer. Planning a budget of $25,000.00 for the event.

Best,
Alice Johnson

## Banking Notifications

### Low Balance Alert - Chase Bank
From: alerts@chase.com
Date: April 2, 2024
Subject: Low balance warning

Your account ending in 4321 has a balance of $1,234.56. Please deposit funds to avoid fees.

### Large Withdrawal - Chase Bank
From: alerts@chase.com
Date: April 5, 2024
Subject: Withdrawal notice

A withdrawal of $3,500.00 was made from your account ending in 4321.

## Bills & Utilities

### Electricity Bill - City Power
From: billing@citypower.com
Date: May 1, 2024
Subject: Your monthly bill

Your account number: ACC9981 bill of $210.45 is ready. Due Date: May 20, 2024
`

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestExtract_StructuredFields(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	ids := NewIdentityTable()

	out := e.Extract(sampleNotifications, ids)

	banking := out[CategoryBanking]
	require.Len(t, banking, 2)

	first := banking[0]
	assert.Equal(t, "Low Balance Alert", first.Type)
	assert.Equal(t, "Chase Bank", first.Provider)
	assert.Equal(t, "alerts@chase.com", first.Email)
	assert.Equal(t, "Low balance warning", first.Subject)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), first.Date)

	require.NotNil(t, first.AccountNumber)
	assert.Equal(t, "4321", *first.AccountNumber)
	require.NotNil(t, first.Amount)
	assert.Equal(t, 1234.56, *first.Amount)
}

func TestExtract_SignedBlocks(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	ids := NewIdentityTable()

	out := e.Extract(sampleNotifications, ids)

	events := out[CategoryLifeEvents]
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Wedding Announcement", ev.Type)
	assert.Equal(t, "alice@example.com", ev.Email)
	assert.Equal(t, "Alice Johnson", ev.SenderName)
	assert.Contains(t, ev.Body, "wedding this summer")
	assert.NotContains(t, ev.Body, "Best,")
}

func TestExtract_DueDate(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	out := e.Extract(sampleNotifications, NewIdentityTable())

	bills := out[CategoryBills]
	require.Len(t, bills, 1)

	bill := bills[0]
	require.NotNil(t, bill.AccountNumber)
	assert.Equal(t, "ACC9981", *bill.AccountNumber)
	require.NotNil(t, bill.Amount)
	assert.Equal(t, 210.45, *bill.Amount)
	require.NotNil(t, bill.DueDate)
	assert.Equal(t, "May 20, 2024", *bill.DueDate)
}

func TestExtract_UserIDsFirstSeen(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	ids := NewIdentityTable()

	out := e.Extract(sampleNotifications, ids)

	assert.Equal(t, 1, out[CategoryLifeEvents][0].UserID)
	assert.Equal(t, 2, out[CategoryBanking][0].UserID)
	assert.Equal(t, 2, out[CategoryBanking][1].UserID)
	assert.Equal(t, 3, out[CategoryBills][0].UserID)
	assert.Equal(t, 3, ids.Len())
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))

	first := e.Extract(sampleNotifications, NewIdentityTable())
	second := e.Extract(sampleNotifications, NewIdentityTable())

	assert.Equal(t, first, second)
}

func TestExtract_EmptyInput(t *testing.T) {
	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))

	out := e.Extract("", NewIdentityTable())

	require.Len(t, out, len(StructuredCategories))
	for _, category := range StructuredCategories {
		recs, ok := out[category]
		require.True(t, ok, category)
		assert.Empty(t, recs)
		assert.NotNil(t, recs)
	}
}

func TestExtract_MalformedBlockDropped(t *testing.T) {
	raw := "## Banking Notifications\n\n### Missing Everything\nno structure here\n"

	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	out := e.Extract(raw, NewIdentityTable())

	assert.Empty(t, out[CategoryBanking])
}

func TestParseDate_FallbackToClock(t *testing.T) {
	raw := `## Banking Notifications

### Balance Alert - Chase Bank
From: alerts@chase.com
Date: sometime last week
Subject: Alert

Your account ending in 9999 changed.
`

	e := NewExtractor(DefaultPatterns(), WithClock(fixedClock))
	out := e.Extract(raw, NewIdentityTable())

	require.Len(t, out[CategoryBanking], 1)
	assert.Equal(t, fixedClock(), out[CategoryBanking][0].Date)
}

func TestIdentityTable_StableResolution(t *testing.T) {
	ids := NewIdentityTable()

	assert.Equal(t, 1, ids.Resolve("a@example.com"))
	assert.Equal(t, 2, ids.Resolve("b@example.com"))
	assert.Equal(t, 1, ids.Resolve("a@example.com"))
	assert.Equal(t, 2, ids.Len())
}
