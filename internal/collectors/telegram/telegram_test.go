package telegram

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/require"
)

func TestChatIDs(t *testing.T) {
	require.Equal(t, []int64{-1001234, 42}, chatIDs([]interface{}{-1001234, "42"}))
	require.Equal(t, []int64{1, 2}, chatIDs("1, 2, x"))
	require.Nil(t, chatIDs(nil))
}

func TestPeerIDForms(t *testing.T) {
	require.Equal(t, int64(-1001234567890), channelPeerID(1234567890))
	require.Equal(t, int64(-7), chatPeerID(7))
}

func TestCollectRequiresCredentials(t *testing.T) {
	_, err := (&TelegramCollector{}).Collect(context.Background(), map[string]interface{}{"chats": "1"})
	require.Error(t, err)
}

func TestParseSettings(t *testing.T) {
	s, err := parseSettings(map[string]interface{}{
		"api_id":   "12345",
		"api_hash": "abc",
		"chats":    []interface{}{"-1001"},
	})
	require.NoError(t, err)
	require.Equal(t, 12345, s.apiID)
	require.Equal(t, 500, s.limit)
	require.Equal(t, "telegram.session", s.sessionFile)
	require.Equal(t, []int64{-1001}, s.chats)

	_, err = parseSettings(map[string]interface{}{"api_id": 1})
	require.Error(t, err)
}

func TestPeerIndex(t *testing.T) {
	index := peerIndex([]tg.ChatClass{
		&tg.Channel{ID: 1234567890, AccessHash: 99},
		&tg.Chat{ID: 7},
	})
	require.Len(t, index, 4)

	channel := &tg.InputPeerChannel{ChannelID: 1234567890, AccessHash: 99}
	require.Equal(t, channel, index[1234567890])
	require.Equal(t, channel, index[-1001234567890])
	require.Equal(t, &tg.InputPeerChat{ChatID: 7}, index[-7])
}

func TestHistoryMessages(t *testing.T) {
	msgs := []tg.MessageClass{&tg.Message{ID: 1}}
	require.Equal(t, msgs, historyMessages(&tg.MessagesMessages{Messages: msgs}))
	require.Equal(t, msgs, historyMessages(&tg.MessagesMessagesSlice{Messages: msgs}))
	require.Equal(t, msgs, historyMessages(&tg.MessagesChannelMessages{Messages: msgs}))
	require.Nil(t, historyMessages(&tg.MessagesMessagesNotModified{}))
}

func TestMessageLinks(t *testing.T) {
	links, oldest := messageLinks([]tg.MessageClass{
		&tg.Message{ID: 30, Message: "fresh: trojan://p@t.example.com:443#a"},
		&tg.MessageService{ID: 25},
		&tg.Message{ID: 20, Message: "channel https://t.me/somewhere\nvless://u@v.example.com:443"},
	})
	require.Equal(t, []string{"trojan://p@t.example.com:443#a", "vless://u@v.example.com:443"}, links)
	require.Equal(t, 20, oldest)

	links, oldest = messageLinks([]tg.MessageClass{&tg.MessageEmpty{ID: 5}})
	require.Empty(t, links)
	require.Zero(t, oldest)
}

func TestTermAuthPrompts(t *testing.T) {
	a := termAuth{in: bufio.NewReader(strings.NewReader("+100\n Ada \nLovelace"))}
	phone, err := a.Phone(context.Background())
	require.NoError(t, err)
	require.Equal(t, "+100", phone)

	info, err := a.SignUp(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ada", info.FirstName)
	require.Equal(t, "Lovelace", info.LastName)

	_, err = a.Code(context.Background(), nil)
	require.Error(t, err)
}
