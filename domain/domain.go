package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound возвращается, когда объект с таким id отсутствует
	// или id не может быть id хранилища.
	ErrNotFound = errors.New("item not found")
	ErrBadInput = errors.New("invalid input")
	ErrInternal = errors.New("internal server error")
)

type Item struct {
	// id выдаёт хранилище при вставке (hex от ObjectID mongo).
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ItemInput тело запроса на создание и замену объекта.
// Сервер проверяет только наличие полей.
type ItemInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// ReplaceResult итог замены: нашёлся ли документ и изменился ли он.
type ReplaceResult struct {
	Matched  bool
	Modified bool
}

type Repository interface {
	// Items возвращает списком все объекты из БД.
	Items(context.Context) ([]Item, error)
	// Item находит объект по id.
	Item(ctx context.Context, id string) (Item, error)
	// AddItem добавляет объект, id выдаёт БД.
	AddItem(ctx context.Context, in ItemInput) (Item, error)
	// ReplaceItem перезаписывает оба поля объекта.
	ReplaceItem(ctx context.Context, id string, in ItemInput) (ReplaceResult, error)
	// DeleteItem удаляет из БД объект по id.
	DeleteItem(ctx context.Context, id string) error
	Ping(context.Context) error
	Close() error
}

// Сообщения успешных ответов замены и удаления. Клиенты
// различают вариант без изменений.
const (
	MsgItemUpdated  = "item updated"
	MsgItemNoChange = "item found but no changes applied"
	MsgItemDeleted  = "item deleted"
)

// Message тело ответа-подтверждения.
type Message struct {
	Message string `json:"message"`
}
