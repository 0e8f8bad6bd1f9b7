package verifier

import "errors"

// User-facing credential errors. Messages are surfaced verbatim by the UI
// layer, in the application's language.
var (
	InvalidCredentialsErr = errors.New("Credenciais inválidas")
	EmailInUseErr         = errors.New("E-mail já cadastrado")
	UsernameInUseErr      = errors.New("Nome de usuário já cadastrado")
	CPFInUseErr           = errors.New("CPF já cadastrado")
)
