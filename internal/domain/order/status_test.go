package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled} {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("refunded")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
	_, err = ParseStatus("Pending")
	assert.Error(t, err, "statuses are case sensitive")
}

func TestCanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled}

	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusProcessing: true, StatusCancelled: true},
		StatusProcessing: {StatusShipping: true, StatusCancelled: true},
		StatusShipping:   {StatusDelivered: true},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusShipping.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestTransition(t *testing.T) {
	o := &Order{Status: StatusPending}

	require.NoError(t, o.transition(StatusProcessing))
	assert.Equal(t, StatusProcessing, o.Status)

	err := o.transition(StatusPending)
	require.Error(t, err)

	var ill *IllegalTransitionError
	require.ErrorAs(t, err, &ill)
	assert.Equal(t, StatusProcessing, ill.From)
	assert.Equal(t, StatusPending, ill.To)
	assert.Equal(t, StatusProcessing, o.Status, "failed transition must not mutate the order")
}

func TestTransition_TerminalStatesReject(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled} {
			o := &Order{Status: terminal}
			err := o.transition(to)
			assert.Error(t, err, "%s -> %s must be rejected", terminal, to)
		}
	}
}
