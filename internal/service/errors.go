package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleInFlight возвращается, когда цикл уже идет: параллельные циклы
// могли бы оба увидеть пост как новый до записи в реестр и доставить его
// дважды, поэтому вход строго невозвратный.
var ErrCycleInFlight = errors.New("sync cycle already in flight")

// ConfigError — не хватает обязательных настроек. Цикл не стартует,
// ни одного сетевого вызова не делается; чинит оператор, не ретраи.
type ConfigError struct {
	MissingKeys []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required settings: %s", strings.Join(e.MissingKeys, ", "))
}
