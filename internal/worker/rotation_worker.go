package worker

import (
	"context"

	"github.com/spec-kit/ticket-bot/internal/service"
)

// StartNoticeRotator runs the security notice rotation until ctx is done.
func StartNoticeRotator(ctx context.Context, rotator *service.NoticeRotator) {
	if rotator == nil {
		return
	}
	go rotator.Run(ctx)
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
