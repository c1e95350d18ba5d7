/*
 *   Copyright 2025 KiProTek <info@kiprotek.com>
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */
package fields

import (
	"fmt"
	"strings"
	"unicode"
)

// MaskPhone renders a phone number for public display, keeping only the
// last two digits: "+90 392 555 01 01" becomes "+90 XXX XXX XX 01".
//
// The input may carry any spacing or punctuation and may or may not have
// the country prefix. Masking an already masked value returns it unchanged.
func MaskPhone(phone string) string {
	if phone == "" || phone == Sentinel {
		return phone
	}
	if strings.Contains(phone, "XXX") {
		return phone
	}

	var digits []rune
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < 2 {
		return "+90 XXX XXX XX XX"
	}

	last2 := string(digits[len(digits)-2:])
	return fmt.Sprintf("+90 XXX XXX XX %s", last2)
}
