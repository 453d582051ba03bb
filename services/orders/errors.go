package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifica falhas de negócio para o mapeamento de status HTTP.
// Substitui a escolha de status por prefixo de mensagem.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindStateConflict ErrorKind = "state_conflict"
	KindUpstream      ErrorKind = "upstream"
	KindInternal      ErrorKind = "internal"
)

// DomainError é uma falha tipada exposta na borda HTTP
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError cria uma nova instância de DomainError
func NewDomainError(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extrai o ErrorKind de um erro; falhas não tipadas são internas
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus mapeia um ErrorKind para o status HTTP correspondente.
// Regras de negócio violadas dentro da transação (produto inexistente,
// estoque insuficiente, pedido cancelado) são erros do cliente, nunca 500.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindStateConflict:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
