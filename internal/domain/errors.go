// Package domain содержит бизнес-сущности магазина упаковки и доменные ошибки.
package domain

import "errors"

// Доменные ошибки. Используются для передачи бизнес-ошибок между слоями
// приложения; HTTP-слой отображает их в коды ответов.
var (
	// ErrBagNotFound возвращается, когда товар (пакет) не найден.
	ErrBagNotFound = errors.New("товар не найден")

	// ErrNoPricingRule возвращается, когда для товара нет действующего
	// правила ценообразования ни на одном уровне (SKU, подтип, тип).
	// Такой товар считается недоступным для покупки.
	ErrNoPricingRule = errors.New("нет действующего правила цены")

	// ErrNoActiveCart возвращается при чекауте без активной корзины.
	ErrNoActiveCart = errors.New("нет активной корзины")

	// ErrCartEmpty возвращается при чекауте пустой корзины.
	ErrCartEmpty = errors.New("корзина пуста")

	// ErrCartLineNotFound возвращается, когда позиция отсутствует в корзине.
	ErrCartLineNotFound = errors.New("позиция не найдена в корзине")

	// ErrInvalidQuantity возвращается, когда количество меньше или равно нулю.
	ErrInvalidQuantity = errors.New("количество должно быть больше нуля")

	// ErrOrderNotFound возвращается, когда заказ не найден.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrOrderLineNotFound возвращается, когда позиция отсутствует в заказе.
	ErrOrderLineNotFound = errors.New("позиция не найдена в заказе")

	// ErrLineNotWeighable возвращается при попытке взвесить позицию
	// с фиксированной ценой.
	ErrLineNotWeighable = errors.New("позиция не требует взвешивания")

	// ErrLineMissingKgPrice возвращается, когда у весовой позиции не
	// зафиксирована цена за килограмм. Это ошибка конфигурации цен.
	ErrLineMissingKgPrice = errors.New("у позиции нет зафиксированной цены за кг")

	// ErrInvalidWeight возвращается, когда измеренный вес меньше или равен нулю.
	ErrInvalidWeight = errors.New("вес должен быть больше нуля")

	// ErrWeightExceedsMax возвращается, когда измеренный вес превышает
	// зафиксированный максимум позиции. Взвешенный вес никогда не может
	// превышать законтрактованный потолок.
	ErrWeightExceedsMax = errors.New("вес превышает зафиксированный максимум")

	// ErrNoInitialStatus возвращается, когда в справочнике статусов не
	// настроен начальный статус заказа. Без него чекаут невозможен.
	ErrNoInitialStatus = errors.New("начальный статус заказа не настроен")

	// ErrStatusNotFound возвращается, когда статус отсутствует в справочнике.
	ErrStatusNotFound = errors.New("статус не найден")

	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("пользователь не найден")

	// ErrEmailExists возвращается при регистрации с занятым email.
	ErrEmailExists = errors.New("email уже зарегистрирован")

	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("неверные учётные данные")

	// ErrWeakPassword возвращается, когда пароль короче минимальной длины.
	ErrWeakPassword = errors.New("пароль слишком короткий")

	// ErrResetTokenInvalid возвращается по неизвестному токену сброса пароля.
	ErrResetTokenInvalid = errors.New("токен сброса пароля недействителен")

	// ErrResetTokenUsed возвращается, когда токен сброса уже был использован.
	ErrResetTokenUsed = errors.New("токен сброса пароля уже использован")

	// ErrResetTokenExpired возвращается по истёкшему токену сброса.
	ErrResetTokenExpired = errors.New("токен сброса пароля истёк")

	// ErrAddressNotFound возвращается, когда адрес не найден или не
	// принадлежит пользователю.
	ErrAddressNotFound = errors.New("адрес не найден")

	// ErrDeliveryTypeNotFound возвращается, когда способ доставки не найден.
	ErrDeliveryTypeNotFound = errors.New("способ доставки не найден")

	// ErrReceiptNotFound возвращается, когда подтверждение оплаты не найдено.
	ErrReceiptNotFound = errors.New("подтверждение оплаты не найдено")

	// ErrInvalidReceiptState возвращается при недопустимом решении по
	// подтверждению оплаты (ожидается approved или rejected).
	ErrInvalidReceiptState = errors.New("недопустимое решение по подтверждению оплаты")

	// ErrForbidden возвращается, когда ресурс принадлежит другому пользователю.
	ErrForbidden = errors.New("доступ запрещён")
)
