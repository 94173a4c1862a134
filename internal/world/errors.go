package world

import "errors"

// ErrInstanceInvariant сигнализирует о нарушении согласованности таблиц экземпляров.
// Такая ошибка не восстанавливается: генерация и таблицы уже разошлись.
var ErrInstanceInvariant = errors.New("нарушен инвариант таблицы экземпляров")
