package safe

// Types of the Safe transaction builder JSON format.

type MethodInput struct {
	InternalType string `json:"internalType,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
}

type ContractMethod struct {
	Inputs  []MethodInput `json:"inputs"`
	Name    string        `json:"name"`
	Payable bool          `json:"payable"`
}

type Transaction struct {
	To                   string            `json:"to"`
	Value                string            `json:"value"`
	Data                 *string           `json:"data"`
	ContractMethod       *ContractMethod   `json:"contractMethod,omitempty"`
	ContractInputsValues map[string]string `json:"contractInputsValues,omitempty"`
}

type Meta struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	TxBuilderVersion        string `json:"txBuilderVersion"`
	CreatedFromSafeAddress  string `json:"createdFromSafeAddress"`
	CreatedFromOwnerAddress string `json:"createdFromOwnerAddress"`
	Checksum                string `json:"checksum"`
}

type Batch struct {
	Version      string        `json:"version"`
	ChainID      string        `json:"chainId"`
	CreatedAt    int64         `json:"createdAt"`
	Meta         Meta          `json:"meta"`
	Transactions []Transaction `json:"transactions"`
}
