// Package storage содержит ошибки, общие для всех хранилищ сервиса.
package storage

import "errors"

var (
	// ErrNotFound — запись отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — запись с таким ключом уже сохранена.
	ErrAlreadyExists = errors.New("already exists")
)
