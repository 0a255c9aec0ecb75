package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/logger"
	"gauge-automation/modules/httputils"

	"go.uber.org/zap"
)

// MaxContentLength is the longest message a Discord webhook accepts.
const MaxContentLength = 2000

type message struct {
	Content string `json:"content"`
}

// Discord posts messages to a channel webhook. Without a webhook URL every
// message is only logged.
type Discord struct {
	webhook string
	doer    httputils.Doer
	log     *zap.Logger
}

func NewDiscord(webhook string, doer httputils.Doer, log *zap.Logger) *Discord {
	return &Discord{webhook: webhook, doer: doer, log: logger.OrNop(log).Named("discord")}
}

func (d *Discord) Enabled() bool {
	return d.webhook != ""
}

func (d *Discord) Send(ctx context.Context, content string) error {
	if !d.Enabled() {
		d.log.Info("no webhook configured, skipping message", zap.String("content", content))
		return nil
	}
	if len(content) > MaxContentLength {
		return errors.InvalidInputError.Clone().
			SetData("length", len(content)).
			SetData("max", MaxContentLength)
	}

	u, err := url.Parse(d.webhook)
	if err != nil {
		return errors.ConfigurationError.Clone().SetData("error", err)
	}
	req, err := httputils.MakeJSONRequest(ctx, http.MethodPost, u, message{content}, nil)
	if err != nil {
		return err
	}

	res, err := d.doer.Do(req)
	if err != nil {
		return errors.TransientNetworkError.Clone().SetData("error", err)
	}
	defer res.Body.Close()

	// webhooks answer 204 without a body
	if res.StatusCode/100 != 2 {
		buf := bytes.Buffer{}
		io.Copy(&buf, io.LimitReader(res.Body, 4096))
		if httputils.IsTransientStatus(res.StatusCode) {
			return errors.TransientNetworkError.Clone().
				SetData("status", res.Status).
				SetData("response", buf.String())
		}
		return fmt.Errorf("webhook rejected message\n\tstatus: %s\n\tresponse: %s", res.Status, buf.String())
	}

	d.log.Debug("message sent")
	return nil
}
