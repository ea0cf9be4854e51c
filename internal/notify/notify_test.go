package notify_test

import (
	"testing"

	"github.com/nepalipay/nepalipay-web3/internal/mocks"
	"github.com/nepalipay/nepalipay-web3/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFeed_BroadcastsToSubscribers(t *testing.T) {
	feed := notify.NewFeed(4)

	first, cancelFirst := feed.Subscribe()
	second, cancelSecond := feed.Subscribe()
	defer cancelSecond()

	n := notify.Success("Transaction Successful", "Transferred 5 NPT")
	feed.Notify(n)

	assert.Equal(t, n, <-first)
	assert.Equal(t, n, <-second)

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)

	feed.Notify(notify.Info("later", ""))
	assert.Len(t, second, 1)
}

func TestFeed_DropsWhenSubscriberIsFull(t *testing.T) {
	feed := notify.NewFeed(1)
	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Notify(notify.Info("one", ""))
	feed.Notify(notify.Info("two", ""))

	require.Len(t, ch, 1)
	assert.Equal(t, "one", (<-ch).Title)
}

func TestLogNotifier_LevelFollowsVariant(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := notify.NewLogNotifier(zap.New(core))

	notifier.Notify(notify.Failure("Transaction Failed", "rejected"))
	notifier.Notify(notify.Success("Wallet Connected", "0xabc"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, "Transaction Failed", entries[0].ContextMap()["title"])
}

func TestMulti(t *testing.T) {
	var got []string
	multi := notify.Multi{
		notify.Func(func(n notify.Notification) { got = append(got, "a:"+n.Title) }),
		notify.Func(func(n notify.Notification) { got = append(got, "b:"+n.Title) }),
	}

	multi.Notify(notify.Info("x", ""))

	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestMulti_ForwardsToEverySink(t *testing.T) {
	first := mocks.NewMockNotifierForTest(t)
	second := mocks.NewMockNotifierForTest(t)

	n := notify.Failure("Transaction Failed", "The request was rejected in your wallet.")
	first.EXPECT().Notify(n).Times(1)
	second.EXPECT().Notify(n).Times(1)

	notify.Multi{first, second}.Notify(n)
}
