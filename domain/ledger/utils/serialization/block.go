package serialization

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/pkg/errors"
)

// SerializeBlock serializes the given block, of either variant.
func SerializeBlock(block externalapi.Block) []byte {
	w := NewWriter()
	switch block := block.(type) {
	case *externalapi.GenesisBlock:
		w.PutUint8(headerTagGenesis)
		writeGenesisHeaderFields(w, block.GenesisHeader)
		writeSlotLeaders(w, block.Body.Leaders)
	case *externalapi.MainBlock:
		w.PutUint8(headerTagMain)
		writeMainHeaderFields(w, block.MainHeader, true)
		writeMainBody(w, block.Body)
	default:
		panic(errors.Errorf("unknown block type %T", block))
	}
	return w.Bytes()
}

// SerializeGenesisBody serializes a genesis block body. This is the
// byte sequence the header's body commitment is computed over.
func SerializeGenesisBody(body *externalapi.GenesisBlockBody) []byte {
	w := NewWriter()
	writeSlotLeaders(w, body.Leaders)
	return w.Bytes()
}

// SerializeMainBody serializes a main block body. This is the byte
// sequence the header's body commitment is computed over.
func SerializeMainBody(body *externalapi.MainBlockBody) []byte {
	w := NewWriter()
	writeMainBody(w, body)
	return w.Bytes()
}

func writeSlotLeaders(w *Writer, leaders externalapi.SlotLeaders) {
	w.PutUint64(uint64(len(leaders)))
	for i := range leaders {
		w.PutStakeholderID(&leaders[i])
	}
}

func readSlotLeaders(r *Reader) (externalapi.SlotLeaders, error) {
	count, err := r.Length()
	if err != nil {
		return nil, err
	}
	leaders := make(externalapi.SlotLeaders, count)
	for i := 0; i < count; i++ {
		leader, err := r.StakeholderID()
		if err != nil {
			return nil, err
		}
		leaders[i] = *leader
	}
	return leaders, nil
}

func writeMainBody(w *Writer, body *externalapi.MainBlockBody) {
	w.PutUint64(uint64(len(body.Transactions)))
	for _, tx := range body.Transactions {
		writeTransaction(w, tx, true)
	}
	writePayload(w, body.Payload)
	w.PutUint64(uint64(len(body.Certificates)))
	for _, certificate := range body.Certificates {
		writeCertificate(w, certificate, true)
	}
}

func readMainBody(r *Reader) (*externalapi.MainBlockBody, error) {
	transactionCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	transactions := make([]*externalapi.DomainTransaction, transactionCount)
	for i := 0; i < transactionCount; i++ {
		transactions[i], err = readTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	payload, err := readPayload(r)
	if err != nil {
		return nil, err
	}
	certificateCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	certificates := make([]*externalapi.DelegationCertificate, certificateCount)
	for i := 0; i < certificateCount; i++ {
		certificates[i], err = readCertificate(r)
		if err != nil {
			return nil, err
		}
	}
	return &externalapi.MainBlockBody{
		Transactions: transactions,
		Payload:      payload,
		Certificates: certificates,
	}, nil
}

func writePayload(w *Writer, payload *externalapi.ConsensusPayload) {
	if payload == nil {
		w.PutUint64(0)
		return
	}
	w.PutUint64(uint64(len(payload.Entries)))
	for _, entry := range payload.Entries {
		w.PutStakeholderID(&entry.Stakeholder)
		w.PutVarBytes(entry.Data)
		w.PutVarBytes(entry.Signature)
	}
}

func readPayload(r *Reader) (*externalapi.ConsensusPayload, error) {
	entryCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	entries := make([]*externalapi.PayloadEntry, entryCount)
	for i := 0; i < entryCount; i++ {
		stakeholder, err := r.StakeholderID()
		if err != nil {
			return nil, err
		}
		data, err := r.VarBytes()
		if err != nil {
			return nil, err
		}
		signature, err := r.VarBytes()
		if err != nil {
			return nil, err
		}
		entries[i] = &externalapi.PayloadEntry{
			Stakeholder: *stakeholder,
			Data:        data,
			Signature:   signature,
		}
	}
	return &externalapi.ConsensusPayload{Entries: entries}, nil
}

func writeCertificate(w *Writer, certificate *externalapi.DelegationCertificate, includeSignature bool) {
	w.PutStakeholderID(&certificate.Issuer)
	w.PutStakeholderID(&certificate.Delegate)
	w.PutUint64(uint64(certificate.Epoch))
	w.PutVarBytes(certificate.IssuerKey)
	if includeSignature {
		w.PutVarBytes(certificate.Signature)
	}
}

func readCertificate(r *Reader) (*externalapi.DelegationCertificate, error) {
	issuer, err := r.StakeholderID()
	if err != nil {
		return nil, err
	}
	delegate, err := r.StakeholderID()
	if err != nil {
		return nil, err
	}
	epoch, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	issuerKey, err := r.VarBytes()
	if err != nil {
		return nil, err
	}
	signature, err := r.VarBytes()
	if err != nil {
		return nil, err
	}
	return &externalapi.DelegationCertificate{
		Issuer:    *issuer,
		Delegate:  *delegate,
		Epoch:     externalapi.EpochIndex(epoch),
		IssuerKey: issuerKey,
		Signature: signature,
	}, nil
}

// SerializeCertificate serializes a delegation certificate, signature
// included.
func SerializeCertificate(certificate *externalapi.DelegationCertificate) []byte {
	w := NewWriter()
	writeCertificate(w, certificate, true)
	return w.Bytes()
}

// DeserializeCertificate deserializes a delegation certificate
// serialized by SerializeCertificate.
func DeserializeCertificate(data []byte) (*externalapi.DelegationCertificate, error) {
	r := NewReader(data)
	certificate, err := readCertificate(r)
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return certificate, nil
}

// SerializeCertificateForSigning serializes a delegation certificate
// without its signature field. This is the byte sequence the issuer
// signs and verifiers check.
func SerializeCertificateForSigning(certificate *externalapi.DelegationCertificate) []byte {
	w := NewWriter()
	writeCertificate(w, certificate, false)
	return w.Bytes()
}

// DeserializeBlock deserializes a block of either variant.
func DeserializeBlock(data []byte) (externalapi.Block, error) {
	r := NewReader(data)
	tag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	var block externalapi.Block
	switch tag {
	case headerTagGenesis:
		header, err := readGenesisHeaderFields(r)
		if err != nil {
			return nil, err
		}
		leaders, err := readSlotLeaders(r)
		if err != nil {
			return nil, err
		}
		block = &externalapi.GenesisBlock{
			GenesisHeader: header,
			Body:          &externalapi.GenesisBlockBody{Leaders: leaders},
		}
	case headerTagMain:
		header, err := readMainHeaderFields(r)
		if err != nil {
			return nil, err
		}
		body, err := readMainBody(r)
		if err != nil {
			return nil, err
		}
		block = &externalapi.MainBlock{MainHeader: header, Body: body}
	default:
		return nil, errors.Errorf("unknown block tag %d", tag)
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return block, nil
}
