package templates

var builtinLanguages = []Language{
	{ID: "typescript", Label: "TypeScript", Extension: ".ts", Template: typescriptTemplate},
	{ID: "javascript", Label: "JavaScript", Extension: ".js", Template: javascriptTemplate},
	{ID: "python", Label: "Python", Extension: ".py", Template: pythonTemplate},
	{ID: "java", Label: "Java", Extension: ".java", Template: javaTemplate},
	{ID: "cpp", Label: "C++", Extension: ".cpp", Template: cppTemplate},
	{ID: "c", Label: "C", Extension: ".c", Template: cTemplate},
	{ID: "csharp", Label: "C#", Extension: ".cs", Template: csharpTemplate},
	{ID: "go", Label: "Go", Extension: ".go", Template: goTemplate},
	{ID: "ruby", Label: "Ruby", Extension: ".rb", Template: rubyTemplate},
	{ID: "php", Label: "PHP", Extension: ".php", Template: phpTemplate},
}

const typescriptTemplate = `/**
 * Solution for the problem
 */
export function solution() {
  // Implement your solution here
  return null;
}

console.log(solution());
`

const javascriptTemplate = `/**
 * Solution for the problem
 */
function solution() {
  // Implement your solution here
  return null;
}

console.log(solution());
`

const pythonTemplate = `#!/usr/bin/env python3
# -*- coding: utf-8 -*-

def solution():
    # Implement your solution here
    return None


if __name__ == "__main__":
    print(solution())
`

const javaTemplate = `public class Solution {
    public static void main(String[] args) {
        Solution sol = new Solution();
        System.out.println(sol.solution());
    }

    public Object solution() {
        // Implement your solution here
        return null;
    }
}
`

const cppTemplate = `#include <iostream>

class Solution {
public:
    void solution() {
        // Implement your solution here
    }
};

int main() {
    Solution sol;
    sol.solution();
    return 0;
}
`

const cTemplate = `#include <stdio.h>

void solution() {
    // Implement your solution here
}

int main() {
    solution();
    return 0;
}
`

const csharpTemplate = `using System;

public class Solution {
    public static void Main() {
        Solution sol = new Solution();
        Console.WriteLine(sol.solution());
    }

    public object solution() {
        // Implement your solution here
        return null;
    }
}
`

const goTemplate = `package main

import "fmt"

func solution() any {
	// Implement your solution here
	return nil
}

func main() {
	fmt.Println(solution())
}
`

const rubyTemplate = `#!/usr/bin/env ruby

def solution
  # Implement your solution here
  nil
end

puts solution
`

const phpTemplate = `<?php

function solution() {
    // Implement your solution here
    return null;
}

echo solution();
`
