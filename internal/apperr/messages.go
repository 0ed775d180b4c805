package apperr

// Message ids. Translations live in internal/i18n/locales.
const (
	MsgInternal           = "InternalError"
	MsgInvalidRequestBody = "InvalidRequestBody"
	MsgFieldRequired      = "FieldRequired"
	MsgInvalidID          = "InvalidID"
	MsgInvalidDate        = "InvalidDate"
	MsgInvalidTime        = "InvalidTime"
	MsgInvalidAmount      = "InvalidAmount"
	MsgInvalidQuantity    = "InvalidQuantity"
	MsgInvalidPrice       = "InvalidPrice"
	MsgItemsRequired      = "ItemsRequired"
	MsgBarcodeAndShop     = "BarcodeAndShopRequired"

	MsgShopNotFound     = "ShopNotFound"
	MsgCategoryNotFound = "CategoryNotFound"
	MsgGoodNotFound     = "GoodNotFound"
	MsgDebtNotFound     = "DebtNotFound"
	MsgReceiptNotFound  = "ReceiptNotFound"
	MsgGoodNotInShop    = "GoodNotInShop"

	MsgOutOfStock            = "OutOfStock"
	MsgInsufficientStock     = "InsufficientStock"
	MsgDebtNotPending        = "DebtNotPending"
	MsgPaymentExceedsBalance = "PaymentExceedsBalance"
	MsgNotAPack              = "NotAPack"
	MsgPackEmpty             = "PackEmpty"
	MsgNoRelatedSingle       = "NoRelatedSingle"
	MsgInvalidRelatedSingle  = "InvalidRelatedSingle"
	MsgInvalidProductType    = "InvalidProductType"
	MsgInvalidReceiptType    = "InvalidReceiptType"
	MsgDuplicateBarcode      = "DuplicateBarcode"
	MsgDuplicateName         = "DuplicateName"
	MsgMultipleGoods         = "MultipleGoodsForBarcode"

	MsgInvalidCredentials = "InvalidCredentials"
	MsgAuthRequired       = "AuthRequired"
	MsgInvalidToken       = "InvalidToken"
	MsgForbidden          = "Forbidden"
	MsgShopAccessDenied   = "ShopAccessDenied"
	MsgAdminExists        = "AdminExists"
	MsgUsernameTaken      = "UsernameTaken"
	MsgPasswordTooShort   = "PasswordTooShort"

	MsgInvalidDateFilter   = "InvalidDateFilter"
	MsgCustomRangeRequired = "CustomRangeRequired"
)
