package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// 邮件队列的名称，需要与 cmd/mail 保持一致
const mailQueue = "report_queue"

func (h *Handler) publishMail(msg domain.MailMessage) error {
	if h.mailChannel == nil {
		slog.Warn("未连接消息队列，邮件未发送", "type", msg.Type, "to", msg.To)
		return nil
	}

	// 序列化邮件
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		mailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
