package services

import "errors"

var (
	// ErrNotFound запись отсутствует (или раскладка истекла)
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest запрос не прошел проверку на границе сервиса
	ErrInvalidRequest = errors.New("invalid request")
)
