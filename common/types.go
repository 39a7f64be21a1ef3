// Copyright 2024 The goimporter Authors
// This file is part of the goimporter library.
//
// The goimporter library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The goimporter library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the goimporter library. If not, see <http://www.gnu.org/licenses/>.

// Package common holds small value types shared across the importer,
// the ledger and the pool collaborators.
package common

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashLength is the expected length of a keccak256 hash in bytes.
const HashLength = 32

// Hash represents a 32 byte keccak256 hash.
type Hash [HashLength]byte

// BytesToHash sets b as the trailing bytes of a hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) IsZero() bool   { return h == Hash{} }

// Keccak256Hash returns the keccak256 digest of the concatenation of data.
func Keccak256Hash(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

// Address represents a 20 byte account address, kept here only because
// headers and transactions in this domain quote a coinbase/sender.
type Address [20]byte

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }
