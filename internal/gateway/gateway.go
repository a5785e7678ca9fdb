// Package gateway содержит общие для всех удалённых клиентов определения.
package gateway

import "github.com/pkg/errors"

// ErrNotFound возвращают клиенты, когда удалённый API не знает такой записи.
// Проверять через errors.Is: клиенты оборачивают её идентификатором.
var ErrNotFound = errors.New("not found")
