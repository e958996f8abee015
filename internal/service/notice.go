package service

import "pajak-web/internal/models"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a non-fatal message produced by a side effect of a ledger event.
type Notice struct {
	Level   NoticeLevel        `json:"level"`
	Message string             `json:"message"`
	Source  models.DocumentRef `json:"source"`
}

func info(ref models.DocumentRef, msg string) Notice {
	return Notice{Level: NoticeInfo, Message: msg, Source: ref}
}

func warning(ref models.DocumentRef, msg string) Notice {
	return Notice{Level: NoticeWarning, Message: msg, Source: ref}
}

func failure(ref models.DocumentRef, msg string) Notice {
	return Notice{Level: NoticeError, Message: msg, Source: ref}
}
