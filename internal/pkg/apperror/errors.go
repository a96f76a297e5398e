package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	// ErrCodeIntegrity означает нарушение инварианта кошельков.
	// Такие ошибки эскалируются оператору, а не показываются пользователю.
	ErrCodeIntegrity ErrorCode = "DATA_INTEGRITY_VIOLATION"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

// IsIntegrity сообщает, что ошибка — нарушение инварианта баланса.
func IsIntegrity(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeIntegrity
}

// Ошибки финансового ядра. Сервисы и репозитории возвращают именно эти
// экземпляры (или их обёртки через Wrap), чтобы HTTP-слой мог сопоставить статус.
var (
	ErrWalletNotFound     = New(ErrCodeNotFound, "кошелёк не найден")
	ErrProjectNotFound    = New(ErrCodeNotFound, "проект не найден")
	ErrMilestoneNotFound  = New(ErrCodeNotFound, "этап не найден")
	ErrOfferNotFound      = New(ErrCodeNotFound, "оффер не найден")
	ErrInvoiceNotFound    = New(ErrCodeNotFound, "счёт не найден")
	ErrWithdrawalNotFound = New(ErrCodeNotFound, "заявка на вывод не найдена")

	ErrInsufficientFunds       = New(ErrCodeConflict, "недостаточно средств на балансе")
	ErrInsufficientLockedFunds = New(ErrCodeConflict, "недостаточно заблокированных средств")
	ErrInvalidMilestoneState   = New(ErrCodeConflict, "недопустимый статус этапа для операции")
	ErrOfferAlreadyResolved    = New(ErrCodeConflict, "оффер уже обработан")
	ErrWithdrawalAlreadyActive = New(ErrCodeConflict, "у фрилансера уже есть активная заявка на вывод")
	ErrCannotCancelApproved    = New(ErrCodeConflict, "нельзя отменить одобренную заявку на вывод")
	ErrInvalidInvoiceState     = New(ErrCodeConflict, "недопустимый статус счёта для операции")
	ErrInvoiceBaseMismatch     = New(ErrCodeConflict, "база счёта не совпадает с суммой заявки на вывод")
	ErrWithdrawalTerminal      = New(ErrCodeConflict, "заявка на вывод уже завершена")

	ErrInvalidTaxInput = New(ErrCodeValidation, "некорректные параметры налогового расчёта")

	ErrForbidden     = New(ErrCodeForbidden, "недостаточно прав")
	ErrDataIntegrity = New(ErrCodeIntegrity, "нарушение целостности балансов")
)
