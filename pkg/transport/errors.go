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
package transport

import (
	"fmt"
	"net/http"
)

type ErrBase struct {
	Code int
	Body []byte
}

type ErrStatusCode ErrBase

func (e *ErrStatusCode) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrBadRequest ErrBase

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrUnauthorized ErrBase

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrForbidden ErrBase

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrNotFound ErrBase

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrConflict ErrBase

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrTooManyRequests ErrBase

func (e *ErrTooManyRequests) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrInternal ErrBase

func (e *ErrInternal) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}

type ErrUnknown ErrBase

func (e *ErrUnknown) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Body)
}
