package tools

import (
	"net/http"

	"tam-chat/internal/config"
	"tam-chat/internal/support"
)

// NewDefaultRegistry 按配置注册全部内置工具；store 为 nil 时跳过本地支持数据工具。
func NewDefaultRegistry(cfg config.Config, client *http.Client, store *support.Store) *Registry {
	gh := &GitHub{
		APIBase:     cfg.GitHub.APIBase,
		Token:       cfg.GitHub.Token,
		DefaultUser: cfg.GitHub.DefaultUser,
		HTTP:        client,
	}
	kakao := &Kakao{
		APIBase:  cfg.Kakao.APIBase,
		Tokens:   TokenStore{Path: cfg.Kakao.TokenPath, Fallback: cfg.Kakao.AccessToken},
		AdminKey: cfg.Kakao.AdminKey,
		HTTP:     client,
	}
	devtalk := &Devtalk{
		Host:          cfg.Devtalk.Host,
		APIKey:        cfg.Devtalk.APIKey,
		APIUsername:   cfg.Devtalk.APIUsername,
		ReplyKey:      cfg.Devtalk.ReplyKey,
		ReplyUsername: cfg.Devtalk.ReplyUsername,
		HTTP:          client,
	}
	admin := &TamAdmin{Host: cfg.TamAdmin.Host, HTTP: client}
	saying := &FamousSaying{URL: cfg.FamousSayingURL, HTTP: client}

	r := NewRegistry()
	if store != nil {
		for _, h := range (&Support{Store: store}).Handlers() {
			r.Register(h)
		}
	}
	for _, h := range []Handler{
		kakao.SendMemoHandler(),
		saying.Handler(),
		kakao.FriendsHandler(),
		kakao.MeHandler(),
		kakao.SendToFriendsHandler(),
		admin.ActionHandler(),
		gh.ReposHandler(),
		devtalk.UnansweredCountHandler(),
		devtalk.UnansweredListHandler(),
		devtalk.ReplyHandler(),
		admin.ChatMatchingHandler(),
		kakao.CalendarsHandler(),
		kakao.EventsHandler(),
		kakao.HolidaysHandler(),
		kakao.MonthViewHandler(),
	} {
		r.Register(h)
	}
	return r
}
