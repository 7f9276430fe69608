package services

import (
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/beevik/etree"
)

// StatementService формирует выписки по сберегательному счету в XML.
// Выписка снабжается HMAC-штампом: подпись считается по содержимому
// документа без элемента подписи, получатель может проверить
// целостность тем же ключом.
type StatementService struct {
	accounts *AccountService
	key      string
}

// NewStatementService создает новый экземпляр StatementService
func NewStatementService(accounts *AccountService, key string) *StatementService {
	return &StatementService{accounts: accounts, key: key}
}

// Export формирует подписанную XML-выписку по счету.
// ИНН клиента в выписке маскируется.
func (s *StatementService) Export(caller Caller, accountID uint) ([]byte, error) {
	account, err := s.accounts.GetSavingsByID(caller, accountID)
	if err != nil {
		return nil, err
	}
	entries, err := s.accounts.ListSavingsTransactions(caller, accountID)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Statement")
	root.CreateAttr("GeneratedAt", time.Now().Format(time.RFC3339))

	acc := root.CreateElement("Account")
	acc.CreateElement("Number").SetText(account.Number)
	acc.CreateElement("Holder").SetText(account.Customer.FullName())
	acc.CreateElement("PAN").SetText(utils.MaskPAN(account.Customer.PAN))
	acc.CreateElement("Status").SetText(string(account.Status))
	acc.CreateElement("Balance").SetText(account.Balance.StringFixed(2))

	list := root.CreateElement("Transactions")
	for _, e := range entries {
		s.appendEntry(list, &e)
	}

	// Подпись считается по документу без элемента Signature
	doc.Indent(2)
	unsigned, err := doc.WriteToBytes()
	if err != nil {
		return nil, NewStorageError("ошибка при формировании выписки", err)
	}
	root.CreateElement("Signature").SetText(utils.SignPayload(unsigned, s.key))

	doc.Indent(2)
	signed, err := doc.WriteToBytes()
	if err != nil {
		return nil, NewStorageError("ошибка при формировании выписки", err)
	}
	return signed, nil
}

func (s *StatementService) appendEntry(list *etree.Element, entry *models.SavingsTransaction) {
	el := list.CreateElement("Transaction")
	el.CreateAttr("Type", string(entry.Type))
	el.CreateElement("Amount").SetText(entry.Amount.StringFixed(2))
	el.CreateElement("Description").SetText(entry.Description)
	el.CreateElement("Date").SetText(entry.CreatedAt.Format(time.RFC3339))
}

// Verify проверяет HMAC-штамп выписки: из документа извлекается и
// удаляется подпись, остаток сверяется с ней
func (s *StatementService) Verify(statement []byte) (bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(statement); err != nil {
		return false, NewValidationError("не удалось разобрать выписку")
	}

	root := doc.Root()
	if root == nil {
		return false, NewValidationError("выписка пуста")
	}
	sig := root.SelectElement("Signature")
	if sig == nil {
		return false, NewValidationError("в выписке нет подписи")
	}
	signature := sig.Text()
	root.RemoveChild(sig)

	doc.Indent(2)
	unsigned, err := doc.WriteToBytes()
	if err != nil {
		return false, NewStorageError("ошибка при проверке выписки", err)
	}
	return utils.VerifyPayload(unsigned, s.key, signature), nil
}
