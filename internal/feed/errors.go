package feed

import "fmt"

// FetchError — транспортная ошибка похода за лентой. Цикл падает целиком,
// повторная попытка на следующем запуске планировщика уместна.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UpstreamError — структурная ошибка от самого сервиса блога
// (невалидный ключ, чужой блог и т.п.). Немедленный повтор бессмысленен,
// пока оператор не поправит доступы.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
}
