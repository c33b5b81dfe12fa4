package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"golang.org/x/net/proxy"

	"subforge/internal/collectors"
	"subforge/internal/link"
	"subforge/internal/logger"
	"subforge/internal/schema"
)

// Telegram caps a history page at 100 messages.
const pageSize = 100

type TelegramCollector struct{}

// settings is the collector's view of its config block.
type settings struct {
	apiID       int
	apiHash     string
	limit       int
	sessionFile string
	chats       []int64
	proxyURL    string
}

func parseSettings(config map[string]interface{}) (settings, error) {
	s := settings{
		apiID:       collectors.IntParam(config, "api_id", 0),
		apiHash:     collectors.Param(config, "api_hash"),
		limit:       collectors.IntParam(config, "limit", 500),
		sessionFile: collectors.Param(config, "session_file"),
		chats:       chatIDs(config["chats"]),
		proxyURL:    collectors.Param(config, "_proxy_url"),
	}
	if s.apiID == 0 || s.apiHash == "" {
		return s, errors.New("missing api_id or api_hash")
	}
	if s.sessionFile == "" {
		s.sessionFile = "telegram.session"
	}
	return s, nil
}

// Collect runs the Telegram userbot and returns the share links found in
// recent messages of the configured chats.
func (c *TelegramCollector) Collect(ctx context.Context, config map[string]interface{}) ([]string, error) {
	s, err := parseSettings(config)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(s.sessionFile); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0700)
	}
	dialer := dialerFor(s.proxyURL)
	client := telegram.NewClient(s.apiID, s.apiHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: s.sessionFile},
		Resolver: dcs.Plain(dcs.PlainOptions{
			Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}),
	})

	var found []string
	err = client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(newTermAuth(), auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		logger.Log.Info("Telegram login successful")

		api := client.API()
		peers, err := resolvePeers(ctx, api)
		if err != nil {
			return err
		}
		for _, id := range s.chats {
			peer, ok := peers[id]
			if !ok {
				logger.Log.Warnf("Could not resolve chat ID %d (not joined or not in recent dialogs)", id)
				continue
			}
			found = append(found, scrapeChat(ctx, api, id, peer, s.limit)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func dialerFor(proxyURL string) proxy.Dialer {
	if proxyURL == "" {
		return proxy.Direct
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		logger.Log.Warnf("Telegram ignoring bad proxy URL %q: %v", proxyURL, err)
		return proxy.Direct
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		logger.Log.Warnf("Telegram ignoring proxy %s: %v", proxyURL, err)
		return proxy.Direct
	}
	logger.Log.Infof("Telegram using proxy: %s", proxyURL)
	return d
}

// resolvePeers maps chat ids, in every form a user may write them, to
// input peers carrying the access hash from the dialog list.
func resolvePeers(ctx context.Context, api *tg.Client) (map[int64]tg.InputPeerClass, error) {
	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dialogs: %w", err)
	}
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		return peerIndex(d.Chats), nil
	case *tg.MessagesDialogsSlice:
		return peerIndex(d.Chats), nil
	}
	return map[int64]tg.InputPeerClass{}, nil
}

func peerIndex(chats []tg.ChatClass) map[int64]tg.InputPeerClass {
	index := make(map[int64]tg.InputPeerClass)
	for _, chat := range chats {
		switch c := chat.(type) {
		case *tg.Channel:
			peer := &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
			index[c.ID] = peer
			index[channelPeerID(c.ID)] = peer
		case *tg.Chat:
			peer := &tg.InputPeerChat{ChatID: c.ID}
			index[c.ID] = peer
			index[chatPeerID(c.ID)] = peer
		}
	}
	return index
}

// scrapeChat walks a chat's history from newest to oldest until limit
// messages were read or the history runs out. A failed page ends the walk
// and keeps what was collected so far.
func scrapeChat(ctx context.Context, api *tg.Client, id int64, peer tg.InputPeerClass, limit int) []string {
	logger.Log.Infof("Scraping chat %d (limit %d)", id, limit)

	var found []string
	fetched, offsetID := 0, 0
	for fetched < limit {
		history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			Limit:    min(pageSize, limit-fetched),
			OffsetID: offsetID,
		})
		if err != nil {
			logger.Log.Errorf("Failed to fetch history of chat %d: %v", id, err)
			break
		}
		messages := historyMessages(history)
		if len(messages) == 0 {
			break
		}
		links, oldest := messageLinks(messages)
		found = append(found, links...)
		fetched += len(messages)
		if oldest == 0 || oldest == offsetID {
			break
		}
		offsetID = oldest
	}

	logger.Log.Infof("Found %d links in %d messages of chat %d", len(found), fetched, id)
	return found
}

func historyMessages(history tg.MessagesMessagesClass) []tg.MessageClass {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages
	case *tg.MessagesMessagesSlice:
		return h.Messages
	case *tg.MessagesChannelMessages:
		return h.Messages
	}
	return nil
}

// messageLinks returns the share links of a history page and the lowest
// message id on it, which is the offset of the next page.
func messageLinks(messages []tg.MessageClass) (links []string, oldest int) {
	for _, msg := range messages {
		m, ok := msg.(*tg.Message)
		if !ok {
			continue
		}
		links = append(links, link.ExtractLinks(m.Message)...)
		if oldest == 0 || m.ID < oldest {
			oldest = m.ID
		}
	}
	return links, oldest
}

// chatIDs accepts a YAML list of ids or a comma separated --param value.
func chatIDs(raw interface{}) []int64 {
	var out []int64
	for _, s := range schema.Strings(raw) {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Bot API style ids: -100<id> for channels, -<id> for basic groups.
func channelPeerID(id int64) int64 { return -1000000000000 - id }
func chatPeerID(id int64) int64    { return -id }

// termAuth prompts on the terminal for login details.
type termAuth struct {
	in *bufio.Reader
}

func newTermAuth() termAuth {
	return termAuth{in: bufio.NewReader(os.Stdin)}
}

func (a termAuth) prompt(label string) (string, error) {
	fmt.Print(label + ": ")
	text, err := a.in.ReadString('\n')
	if err != nil && text == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(text), nil
}

func (a termAuth) Phone(_ context.Context) (string, error) {
	return a.prompt("Phone number")
}

func (a termAuth) Password(_ context.Context) (string, error) {
	return a.prompt("2FA password")
}

func (a termAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt("Login code")
}

func (a termAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	first, err := a.prompt("First name")
	if err != nil {
		return auth.UserInfo{}, err
	}
	last, err := a.prompt("Last name")
	if err != nil {
		return auth.UserInfo{}, err
	}
	return auth.UserInfo{FirstName: first, LastName: last}, nil
}

func (termAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func init() {
	collectors.Register("telegram", func() collectors.Collector {
		return &TelegramCollector{}
	})
}
